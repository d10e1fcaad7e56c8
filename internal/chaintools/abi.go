package chaintools

// 下面的 ABI 表只收录工具集用到的函数条目,完整 ABI 由链上合约自带。

const erc20ABI = `[
  {"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const erc721ABI = `[
  {"inputs":[{"name":"to","type":"address"},{"name":"uri","type":"string"}],"name":"safeMint","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const erc1155ABI = `[
  {"inputs":[{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const fractionVaultABI = `[
  {"inputs":[{"name":"token","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"shares","type":"uint256"}],"name":"fractionalize","outputs":[{"name":"vaultId","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"vaultId","type":"uint256"}],"name":"redeem","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"vaultId","type":"uint256"}],"name":"sharesOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`
