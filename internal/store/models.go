package store

import "time"

type User struct {
	Email        string        `json:"email" firestore:"email"`
	PasswordHash string        `json:"password" firestore:"password"` // bcrypt, never the plaintext
	Location     *UserLocation `json:"location" firestore:"location"`
	Chats        []string      `json:"chats" firestore:"chats"`
	IsSeller     bool          `json:"isSeller" firestore:"isSeller"`
}

type UserLocation struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

// Chat is a buyer/seller negotiation thread.
type Chat struct {
	ID       string    `json:"chat_id,omitempty" firestore:"-"`
	Messages []Message `json:"messages" firestore:"messages"`
	Meetup   Meetup    `json:"meetup" firestore:"meetup"`
	OTP      OTP       `json:"otp" firestore:"otp"`
}

type Message struct {
	Sender    string    `json:"sender" firestore:"sender"`
	Text      string    `json:"text" firestore:"text"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

// Meetup holds the in-person terms. Zero values mean "not proposed yet".
type Meetup struct {
	Agreed   bool     `json:"agreed" firestore:"agreed"`
	Time     string   `json:"time" firestore:"time"`
	Location Location `json:"location" firestore:"location"`
	Price    *float64 `json:"price" firestore:"price"`
}

type Location struct {
	Lat  *float64 `json:"lat" firestore:"lat"`
	Long *float64 `json:"long" firestore:"long"`
}

type OTP struct {
	Token     string `json:"token" firestore:"token"`
	Confirmed bool   `json:"confirmed" firestore:"confirmed"`
}
