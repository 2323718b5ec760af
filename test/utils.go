package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"time"

	"virtualwardrobe/config"
	"virtualwardrobe/models"
	"virtualwardrobe/services"

	"gorm.io/gorm"
)

const JWTSecret = "test-jwt-secret"

func TestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8083,
			Env:            "test",
			RequestTimeout: 30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Storage: config.StorageConfig{Backend: config.StorageBackendR2, PresignTTL: 15 * time.Minute},
		Auth: config.AuthConfig{
			Provider:        config.AuthProviderJWT,
			JWTSecret:       JWTSecret,
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			AuthMax:    1000,
			AuthWindow: time.Minute,
			APIMax:     1000,
			APIWindow:  time.Minute,
		},
	}
}

func TokenIssuer() *services.TokenIssuer {
	return services.NewTokenIssuer(JWTSecret, time.Hour, 24*time.Hour)
}

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(userID string) string {
	pair, err := TokenIssuer().Issue(&models.UserAccount{JsonModel: models.JsonModel{ID: userID}})
	if err != nil {
		log.Fatalf("Error when signing user token for %s. Error %s ", userID, err)
	}
	return pair.Token
}

func NewJSONAuthRequest(method string, target string, userID string, param interface{}) *http.Request {
	req := NewJSONRequest(method, target, param)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userID)))
	return req
}

func NewJSONAuthRequestRaw(method string, target string, userID string, json string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(json))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userID)))
	return req
}

func NewAuthRequest(method string, target string, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userID)))
	return req
}

// NewUploadRequest builds the multipart body of an item upload.
func NewUploadRequest(target, userID string, fields map[string]string, fileName, contentType string, data []byte) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	if data != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, fileName))
		header.Set("Content-Type", contentType)
		part, _ := writer.CreatePart(header)
		part.Write(data)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userID)))
	return req
}

func FakeUser(db *gorm.DB, email string) *models.UserAccount {
	if email == "" {
		email = "email@example.com"
	}
	hash, _ := services.HashPassword("Passw0rdOk")
	user := &models.UserAccount{
		Email:        email,
		UserName:     "OurName",
		PasswordHash: hash,
		Provider:     models.ProviderLocal,
		LastIp:       "123.122.122.122",
	}
	db.Create(user)
	return user
}

func FakeItem(db *gorm.DB, owner *models.UserAccount, name, clothType string) *models.WardrobeItem {
	item := &models.WardrobeItem{
		OwnerID:     owner.ID,
		Name:        name,
		ClothType:   clothType,
		ImageKey:    fmt.Sprintf("wardrobe/%s/%s.jpg", owner.ID, name),
		ContentType: "image/jpeg",
	}
	db.Create(item)
	return item
}

func NewRefString(data string) *string {
	return &data
}

func Contains(items []string, lookFor string) bool {
	for i := 0; i < len(items); i++ {
		if items[i] == lookFor {
			return true
		}
	}
	return false
}
