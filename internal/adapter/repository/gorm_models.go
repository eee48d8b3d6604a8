package repository

import (
	"time"

	"gorm.io/gorm"

	"sellnext/internal/domain/entity"
)

// Relational rows backing the GORM driver. Conversations store their two
// participants and unread counters in fixed columns so counters can be
// updated with atomic column expressions.

type userRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	FullName     string `gorm:"size:100;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Phone        string `gorm:"size:32"`
	Location     string `gorm:"size:100"`
	AvatarURL    string
	Bio          string
	IsBuyer      bool
	IsSeller     bool
	Rating       float64
	ReviewCount  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type productRecord struct {
	ID              string            `gorm:"primaryKey;size:36"`
	SellerID        string            `gorm:"size:36;index;not null"`
	Title           string            `gorm:"size:100;not null"`
	Description     string            `gorm:"size:1000;not null"`
	Price           float64           `gorm:"index"`
	OriginalPrice   *float64
	Category        string            `gorm:"size:32;index"`
	Condition       string            `gorm:"size:32;index"`
	Images          []string          `gorm:"serializer:json"`
	Location        string            `gorm:"size:100"`
	Status          string            `gorm:"size:16;index"`
	Views           int
	Favorites       []string          `gorm:"serializer:json"`
	Tags            []string          `gorm:"serializer:json"`
	Specifications  map[string]string `gorm:"serializer:json"`
	Negotiable      bool
	DeliveryOptions []string          `gorm:"serializer:json"`
	CreatedAt       time.Time         `gorm:"index"`
	UpdatedAt       time.Time
}

func (productRecord) TableName() string { return "products" }

type favoriteRecord struct {
	UserID    string `gorm:"primaryKey;size:36"`
	ProductID string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func (favoriteRecord) TableName() string { return "favorites" }

type conversationRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	ParticipantA  string `gorm:"size:36;index;not null"`
	ParticipantB  string `gorm:"size:36;index;not null"`
	ProductID     string `gorm:"size:36"`
	LastMessageID string `gorm:"size:36"`
	LastActivity  time.Time
	IsActive      bool
	UnreadA       int
	UnreadB       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (conversationRecord) TableName() string { return "conversations" }

type messageRecord struct {
	ID              string `gorm:"primaryKey;size:36"`
	ConversationID  string `gorm:"size:36;index:idx_messages_conversation_created,priority:1;not null"`
	SenderID        string `gorm:"size:36;not null"`
	ReceiverID      string `gorm:"size:36;index;not null"`
	Content         string `gorm:"size:1000;not null"`
	Type            string `gorm:"size:16"`
	ImageURL        string
	OfferAmount     *float64
	OfferStatus     string `gorm:"size:16"`
	IsRead          bool   `gorm:"index"`
	ReadAt          *time.Time
	Status          string `gorm:"size:16"`
	ClientMessageID string `gorm:"size:64"`
	CreatedAt       time.Time `gorm:"index:idx_messages_conversation_created,priority:2"`
	UpdatedAt       time.Time
}

func (messageRecord) TableName() string { return "messages" }

// AutoMigrate creates or updates the tables used by the GORM repositories.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userRecord{},
		&productRecord{},
		&favoriteRecord{},
		&conversationRecord{},
		&messageRecord{},
	)
}

func newUserRecord(u *entity.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Location:     u.Location,
		AvatarURL:    u.AvatarURL,
		Bio:          u.Bio,
		IsBuyer:      u.IsBuyer,
		IsSeller:     u.IsSeller,
		Rating:       u.Rating,
		ReviewCount:  u.ReviewCount,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *userRecord) toEntity() *entity.User {
	return &entity.User{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Phone:        r.Phone,
		Location:     r.Location,
		AvatarURL:    r.AvatarURL,
		Bio:          r.Bio,
		IsBuyer:      r.IsBuyer,
		IsSeller:     r.IsSeller,
		Rating:       r.Rating,
		ReviewCount:  r.ReviewCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newProductRecord(p *entity.Product) *productRecord {
	return &productRecord{
		ID:              p.ID,
		SellerID:        p.SellerID,
		Title:           p.Title,
		Description:     p.Description,
		Price:           p.Price,
		OriginalPrice:   p.OriginalPrice,
		Category:        p.Category,
		Condition:       p.Condition,
		Images:          p.Images,
		Location:        p.Location,
		Status:          p.Status,
		Views:           p.Views,
		Favorites:       p.Favorites,
		Tags:            p.Tags,
		Specifications:  p.Specifications,
		Negotiable:      p.Negotiable,
		DeliveryOptions: p.DeliveryOptions,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (r *productRecord) toEntity() *entity.Product {
	p := &entity.Product{
		ID:              r.ID,
		SellerID:        r.SellerID,
		Title:           r.Title,
		Description:     r.Description,
		Price:           r.Price,
		OriginalPrice:   r.OriginalPrice,
		Category:        r.Category,
		Condition:       r.Condition,
		Images:          r.Images,
		Location:        r.Location,
		Status:          r.Status,
		Views:           r.Views,
		Favorites:       r.Favorites,
		Tags:            r.Tags,
		Specifications:  r.Specifications,
		Negotiable:      r.Negotiable,
		DeliveryOptions: r.DeliveryOptions,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if p.Favorites == nil {
		p.Favorites = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

func productEntities(records []productRecord) []*entity.Product {
	products := make([]*entity.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toEntity())
	}
	return products
}

func newConversationRecord(c *entity.Conversation) *conversationRecord {
	a, b := c.Participants[0], c.Participants[1]
	return &conversationRecord{
		ID:            c.ID,
		ParticipantA:  a,
		ParticipantB:  b,
		ProductID:     c.ProductID,
		LastMessageID: c.LastMessageID,
		LastActivity:  c.LastActivity,
		IsActive:      c.IsActive,
		UnreadA:       c.UnreadFor(a),
		UnreadB:       c.UnreadFor(b),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (r *conversationRecord) toEntity() *entity.Conversation {
	return &entity.Conversation{
		ID:            r.ID,
		Participants:  []string{r.ParticipantA, r.ParticipantB},
		ProductID:     r.ProductID,
		LastMessageID: r.LastMessageID,
		LastActivity:  r.LastActivity,
		IsActive:      r.IsActive,
		UnreadCount:   map[string]int{r.ParticipantA: r.UnreadA, r.ParticipantB: r.UnreadB},
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// unreadColumn names the counter column of userID in this conversation.
func (r *conversationRecord) unreadColumn(userID string) string {
	if r.ParticipantB == userID {
		return "unread_b"
	}
	return "unread_a"
}

func newMessageRecord(m *entity.Message) *messageRecord {
	rec := &messageRecord{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		SenderID:        m.SenderID,
		ReceiverID:      m.ReceiverID,
		Content:         m.Content,
		Type:            m.Type,
		ImageURL:        m.ImageURL,
		IsRead:          m.IsRead,
		ReadAt:          m.ReadAt,
		Status:          m.Status,
		ClientMessageID: m.ClientMessageID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Offer != nil {
		amount := m.Offer.Amount
		rec.OfferAmount = &amount
		rec.OfferStatus = m.Offer.Status
	}
	return rec
}

func (r *messageRecord) toEntity() *entity.Message {
	m := &entity.Message{
		ID:              r.ID,
		ConversationID:  r.ConversationID,
		SenderID:        r.SenderID,
		ReceiverID:      r.ReceiverID,
		Content:         r.Content,
		Type:            r.Type,
		ImageURL:        r.ImageURL,
		IsRead:          r.IsRead,
		ReadAt:          r.ReadAt,
		Status:          r.Status,
		ClientMessageID: r.ClientMessageID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.OfferAmount != nil {
		m.Offer = &entity.Offer{Amount: *r.OfferAmount, Status: r.OfferStatus}
	}
	return m
}
