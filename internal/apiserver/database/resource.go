package database

import "time"

// Base is embedded by every reference data and content record
type Base struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Status    bool      `json:"status" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) base() *Base { return b }

// Resource is satisfied by pointers to the record types below
type Resource[T any] interface {
	*T
	base() *Base
}

// parented records reference a parent record that must exist
type parented interface {
	parentColumn() string
	parentRef() (model any, id uint)
}

// parentOf records block deletion while children reference them
type parentOf interface {
	childRef() (model any, column string)
}

type Continent struct {
	Base
	Name string `json:"name" gorm:"type:varchar(100);uniqueIndex;not null" binding:"required,max=100"`
	Code string `json:"code" gorm:"type:varchar(10)" binding:"max=10"`
}

func (c *Continent) childRef() (any, string) { return &Country{}, "continent_id" }

type Country struct {
	Base
	ContinentID uint       `json:"continentId" gorm:"index;not null" binding:"required"`
	Continent   *Continent `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Name        string     `json:"name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	ISOCode     string     `json:"isoCode" gorm:"type:varchar(3)" binding:"max=3"`
	PhoneCode   string     `json:"phoneCode" gorm:"type:varchar(10)" binding:"max=10"`
}

func (c *Country) parentColumn() string    { return "continent_id" }
func (c *Country) parentRef() (any, uint)  { return &Continent{}, c.ContinentID }
func (c *Country) childRef() (any, string) { return &State{}, "country_id" }

type State struct {
	Base
	CountryID uint     `json:"countryId" gorm:"index;not null" binding:"required"`
	Country   *Country `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Name      string   `json:"name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Code      string   `json:"code" gorm:"type:varchar(10)" binding:"max=10"`
}

func (s *State) parentColumn() string    { return "country_id" }
func (s *State) parentRef() (any, uint)  { return &Country{}, s.CountryID }
func (s *State) childRef() (any, string) { return &District{}, "state_id" }

type District struct {
	Base
	StateID uint   `json:"stateId" gorm:"index;not null" binding:"required"`
	State   *State `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Name    string `json:"name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
}

func (d *District) parentColumn() string   { return "state_id" }
func (d *District) parentRef() (any, uint) { return &State{}, d.StateID }

type Ad struct {
	Base
	Title    string `json:"title" gorm:"type:varchar(255);not null" binding:"required,max=255"`
	ImageURL string `json:"imageUrl" gorm:"type:text" binding:"omitempty,url"`
	LinkURL  string `json:"linkUrl" gorm:"type:text" binding:"omitempty,url"`
	Position int    `json:"position"`
}

type Gallery struct {
	Base
	Title    string `json:"title" gorm:"type:varchar(255);not null" binding:"required,max=255"`
	ImageURL string `json:"imageUrl" gorm:"type:text" binding:"required,url"`
	Caption  string `json:"caption" gorm:"type:text"`
}

type Term struct {
	Base
	Title   string `json:"title" gorm:"type:varchar(255);not null" binding:"required,max=255"`
	Content string `json:"content" gorm:"type:text" binding:"required"`
	Version string `json:"version" gorm:"type:varchar(50)" binding:"max=50"`
}

type SocialLink struct {
	Base
	Platform string `json:"platform" gorm:"type:varchar(50);not null" binding:"required,max=50"`
	URL      string `json:"url" gorm:"type:text;not null" binding:"required,url"`
}

type Feedback struct {
	Base
	Name    string `json:"name" gorm:"type:varchar(100)" binding:"max=100"`
	Email   string `json:"email" gorm:"type:varchar(255)" binding:"omitempty,email"`
	Message string `json:"message" gorm:"type:text;not null" binding:"required"`
	Rating  int    `json:"rating" binding:"gte=0,lte=5"`
}

func (Feedback) TableName() string {
	return "feedback"
}
