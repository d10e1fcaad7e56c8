// Package config loads the walletmcpd startup configuration from a
// single JSON file and applies defaults. Credential secrets never live
// in the file; wallet slots only name the environment variables to
// read them from.
package config
