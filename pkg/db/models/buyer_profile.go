package models

import (
	"time"

	"github.com/google/uuid"
)

// BuyerProfilePF holds identification and address data for an individual
// account. CPF is the Brazilian natural-person tax id.
type BuyerProfilePF struct {
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	FullName   string    `gorm:"column:full_name;not null"`
	Email      string    `gorm:"column:email;not null"`
	Phone      *string   `gorm:"column:phone"`
	CPF        *string   `gorm:"column:cpf"`
	PostalCode *string   `gorm:"column:postal_code"`
	Street     *string   `gorm:"column:street"`
	Number     *string   `gorm:"column:number"`
	Complement *string   `gorm:"column:complement"`
	District   *string   `gorm:"column:district"`
	City       *string   `gorm:"column:city"`
	State      *string   `gorm:"column:state"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (BuyerProfilePF) TableName() string { return "buyer_profiles_pf" }

// BuyerProfilePJ holds identification and address data for a business
// account. CNPJ is the Brazilian company tax id.
type BuyerProfilePJ struct {
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	CompanyName string    `gorm:"column:company_name;not null"`
	Email       string    `gorm:"column:email;not null"`
	Phone       *string   `gorm:"column:phone"`
	CNPJ        *string   `gorm:"column:cnpj"`
	PostalCode  *string   `gorm:"column:postal_code"`
	Street      *string   `gorm:"column:street"`
	Number      *string   `gorm:"column:number"`
	Complement  *string   `gorm:"column:complement"`
	District    *string   `gorm:"column:district"`
	City        *string   `gorm:"column:city"`
	State       *string   `gorm:"column:state"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (BuyerProfilePJ) TableName() string { return "buyer_profiles_pj" }
