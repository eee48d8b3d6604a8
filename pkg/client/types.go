package client

import "time"

// Local delivery state of a message held by MessagingState.
const (
	StatePending = "pending"
	StateSent    = "sent"
	StateFailed  = "failed"
)

type User struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

type UserSummary struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Product struct {
	ID             string    `json:"id"`
	SellerID       string    `json:"seller_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	Category       string    `json:"category"`
	Condition      string    `json:"condition"`
	Images         []string  `json:"images"`
	Location       string    `json:"location"`
	Status         string    `json:"status"`
	FavoritesCount int       `json:"favorites_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type ProductSummary struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Image string  `json:"image,omitempty"`
	Price float64 `json:"price"`
}

type LastMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID           string          `json:"id"`
	OtherUser    *UserSummary    `json:"other_user"`
	Product      *ProductSummary `json:"product"`
	LastMessage  *LastMessage    `json:"last_message"`
	UnreadCount  int             `json:"unread_count"`
	LastActivity time.Time       `json:"last_activity"`
	IsActive     bool            `json:"is_active"`
}

type Message struct {
	ID              string     `json:"id"`
	ConversationID  string     `json:"conversation_id"`
	SenderID        string     `json:"sender_id"`
	ReceiverID      string     `json:"receiver_id"`
	Content         string     `json:"content"`
	MessageType     string     `json:"message_type"`
	ImageURL        string     `json:"image_url,omitempty"`
	IsRead          bool       `json:"is_read"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
	Status          string     `json:"status"`
	ClientMessageID string     `json:"client_message_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// State is the local delivery state; it never travels over the wire.
	State string `json:"-"`
}

type MessagePage struct {
	Messages   []*Message `json:"messages"`
	Pagination struct {
		Page    int  `json:"page"`
		Limit   int  `json:"limit"`
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
}

type ProductPage struct {
	Products   []*Product `json:"products"`
	Pagination struct {
		CurrentPage   int   `json:"current_page"`
		TotalPages    int   `json:"total_pages"`
		TotalProducts int64 `json:"total_products"`
		HasNext       bool  `json:"has_next"`
		HasPrev       bool  `json:"has_prev"`
	} `json:"pagination"`
}

type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type SignupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Password string `json:"password"`
}

type SendMessageRequest struct {
	ConversationID  string `json:"conversation_id"`
	ReceiverID      string `json:"receiver_id,omitempty"`
	Content         string `json:"content"`
	MessageType     string `json:"message_type,omitempty"`
	ClientMessageID string `json:"client_message_id,omitempty"`
}

type FavoriteResult struct {
	ProductID      string `json:"product_id"`
	IsFavorited    bool   `json:"is_favorited"`
	FavoritesCount int    `json:"favorites_count"`
}
