package models

type AuthProvider string

const (
	ProviderLocal    AuthProvider = "local"
	ProviderFirebase AuthProvider = "firebase"
	ProviderGoogle   AuthProvider = "google"
)

type UserAccount struct {
	JsonModel
	Email        string       `gorm:"uniqueIndex" json:"email"`
	UserName     string       `json:"userName"`
	PasswordHash string       `json:"-"`
	Provider     AuthProvider `gorm:"default:local" json:"-"`
	// subject at the external identity provider, nil for local accounts
	ExternalID *string         `gorm:"uniqueIndex" json:"-"`
	Banned     bool            `gorm:"default:false" json:"-"`
	LastIp     string          `json:"-"`
	PushTokens []UserPushToken `gorm:"foreignKey:UserAccountID" json:"-"`
}

type UserPushToken struct {
	JsonModel
	UserAccountID string      `gorm:"index"`
	UserAccount   UserAccount `json:"-"`
	Platform      Platform    `json:"platform"`
	Token         string      `gorm:"uniqueIndex" json:"token"`
	Active        bool        `gorm:"default:false" json:"-"`
}

type UserPushIn struct {
	Token    string   `json:"token" validate:"required,max=4096"`
	Platform Platform `json:"platform" validate:"required,platform"`
}
