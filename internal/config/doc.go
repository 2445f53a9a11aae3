// Package config handles configuration loading for searcher-auth.
//
// # Configuration File
//
// Files are YAML unless the name ends in .toml. Unset fields keep the values
// from Default. Values can reference environment variables:
//
//	auth:
//	  keypair_path: "${SEARCHER_KEYPAIR}"
//
// # Configuration Sections
//
//	block_engine:
//	  url: "https://mainnet.block-engine.jito.wtf"  # https:// implies TLS
//	  insecure: false
//
//	auth:
//	  keypair_path: "~/.config/solana/id.json"  # Solana JSON, base58, or OpenSSH ed25519
//	  role: "searcher"
//	  timeout: "10s"         # per auth round trip; negative disables
//	  expiry_margin: "10s"   # tokens count as stale this long before expiry
//	  refresh_fallback: false
//	  eager: true            # authenticate while dialing
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "color" # text, json, color
//
// The TOML form uses the same keys under [block_engine], [auth], and [logging].
package config
