package constants

// Config names resolve through the config resolver: environment first,
// then the process cache, then the app_secrets table.
const (
	ConfigKeyCatBaseURL      = "CAT_API_BASEURL"
	ConfigKeyCatTokenURL     = "CAT_TOKEN_URL"
	ConfigKeyCatClientID     = "CAT_CLIENT_ID"
	ConfigKeyCatClientSecret = "CAT_CLIENT_SECRET"
	ConfigKeyCatScope        = "CAT_SCOPE"

	ConfigKeyHydremaBaseURL      = "HYDREMA_API_BASEURL"
	ConfigKeyHydremaTokenURL     = "HYDREMA_TOKEN_URL"
	ConfigKeyHydremaClientID     = "HYDREMA_CLIENT_ID"
	ConfigKeyHydremaClientSecret = "HYDREMA_CLIENT_SECRET"

	ConfigKeyBjugstadBaseURL         = "BJUGSTAD_API_BASEURL"
	ConfigKeyBjugstadAPIKeyPrimary   = "BJUGSTAD_API_KEY_PRIMARY"
	ConfigKeyBjugstadAPIKeySecondary = "BJUGSTAD_API_KEY_SECONDARY"

	ConfigKeySyncMaxPages = "SYNC_MAX_PAGES"
	ConfigKeyAdminAPIKey  = "ADMIN_API_KEY"
)

// DefaultMaxPages bounds pagination when SYNC_MAX_PAGES is not configured.
const DefaultMaxPages = 500

// Machine ids are namespaced per OEM so feeds can never collide.
const (
	OEMPrefixCat     = "CAT"
	OEMPrefixHydrema = "HYDREMA"
)

// Sync-history event names, one per scheduled job.
const (
	SyncEventCatMachines     = "cat_machines"
	SyncEventHydremaMachines = "hydrema_machines"
	SyncEventCustomers       = "bjugstad_customers"
)
