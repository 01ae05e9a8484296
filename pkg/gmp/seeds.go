package gmp

// The constants below record the PDA seed convention an adapter targeting a
// real SVM deployment would use to derive the accounts this reference
// implementation keeps as plain Go maps (Config, TrustedRemote, Routing,
// OutboundNonce, MessageAccount). Nothing in this module consumes them:
// Endpoint keeps plain maps, and pkg/relay's BuildAccounts labels accounts
// by role rather than by derived seed.
const (
	SeedConfig        = "gmp_config"
	SeedRelay         = "gmp_relay"
	SeedTrustedRemote = "gmp_trusted_remote"
	SeedRouting       = "gmp_routing"
	SeedOutboundNonce = "gmp_outbound_nonce"
	SeedMessage       = "gmp_message"
	SeedDelivered     = "gmp_delivered"
)
