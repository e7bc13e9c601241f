package test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"closetapi/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

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

func GenerateUserToken(userPk string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Fatalf("Error when signing user token for %s. Error %s ", userPk, err)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, userPk string, param interface{}) *http.Request {
	log.Println(JsonString(param))
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func NewJSONAuthRequestRaw(method string, target string, userPk string, json string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(json))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func Int64Pointer(i int64) *int64 {
	return &i
}

func NewRefString(data string) *string {
	return &data
}

func FakeUser(db *gorm.DB) *models.UserAccount {
	user := &models.UserAccount{
		Name:      "OurName",
		Email:     "email@example.com",
		Gender:    "male",
		LastIp:    "123.122.122.122",
		AvatarURL: "pictureurl",
	}
	db.Create(&user)
	return user
}

func FakeUserV2(db *gorm.DB, userName string, email string) *models.UserAccount {
	if email == "" {
		email = "email@example.com"
	}
	user := &models.UserAccount{
		Name:      userName,
		Email:     email,
		Gender:    "female",
		LastIp:    "123.122.122.122",
		AvatarURL: "pictureurl",
	}
	db.Create(&user)
	return user
}

// FakeItem creates a wardrobe item with sensible defaults for the given
// owner and category.
func FakeItem(db *gorm.DB, ownerID uint, name string, category string) *models.ClothingItem {
	item := &models.ClothingItem{
		OwnerID:         ownerID,
		Name:            name,
		Type:            "generic",
		Color:           "blue",
		Category:        category,
		Style:           "casual",
		Characteristics: pq.StringArray{"comfortable"},
		Season:          pq.StringArray{"all"},
		State:           "good",
	}
	db.Create(&item)
	return item
}

// OracleStub answers prompts by matching registered markers against the
// prompt text. Prompts with no matching marker get an error, same as a
// real outage, so stages not under test exercise their fallbacks.
type OracleStub struct {
	Responses map[string]string
	Calls     int
}

func (o *OracleStub) Complete(ctx context.Context, prompt string) (string, error) {
	o.Calls++
	for marker, response := range o.Responses {
		if strings.Contains(prompt, marker) {
			return response, nil
		}
	}
	return "", errors.New("no scripted response for prompt")
}

// FailingOracle simulates a full oracle outage.
type FailingOracle struct {
	Calls int
}

func (o *FailingOracle) Complete(ctx context.Context, prompt string) (string, error) {
	o.Calls++
	return "", errors.New("oracle unavailable")
}

// GarbageOracle answers every prompt with text that contains no JSON.
type GarbageOracle struct {
	Calls int
}

func (o *GarbageOracle) Complete(ctx context.Context, prompt string) (string, error) {
	o.Calls++
	return "I am sorry, I cannot help with that.", nil
}
