package models

// SettingsID is the fixed document id of the settings singleton.
const SettingsID = "app"

// Settings is the singleton application configuration document.
type Settings struct {
	ID             string `bson:"_id" json:"id"`
	CurrencyCode   string `bson:"currency_code" json:"currencyCode"`
	CurrencySymbol string `bson:"currency_symbol" json:"currencySymbol"`
	SetupComplete  bool   `bson:"setup_complete" json:"setupComplete"`
}

// DefaultSettings is used until the remote settings document first syncs.
func DefaultSettings() Settings {
	return Settings{ID: SettingsID, CurrencyCode: "GNF", CurrencySymbol: "FG"}
}
