package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Category — размерный класс бытовой техники.
type Category string

const (
	CategoryBig   Category = "BIG"
	CategorySmall Category = "SMALL"
)

// Valid проверяет, что категория относится к поддерживаемым значениям.
func (c Category) Valid() bool {
	switch c {
	case CategoryBig, CategorySmall:
		return true
	default:
		return false
	}
}

// PowerType — класс питания техники.
type PowerType string

const (
	PowerTypeAC220       PowerType = "AC220"
	PowerTypeAC110       PowerType = "AC110"
	PowerTypeAccumulator PowerType = "ACCUMULATOR"
)

// Valid проверяет, что тип питания относится к поддерживаемым значениям.
func (p PowerType) Valid() bool {
	switch p {
	case PowerTypeAC220, PowerTypeAC110, PowerTypeAccumulator:
		return true
	default:
		return false
	}
}

var (
	maxAppliancePrice = decimal.RequireFromString("999999.99")
	minMoneyAmount    = decimal.RequireFromString("0.01")
)

// Manufacturer — производитель техники, имя уникально.
type Manufacturer struct {
	ID      int64
	Name    string
	Address string
	Country string
}

// ValidateInvariants проверяет обязательные поля производителя.
func (m Manufacturer) ValidateInvariants() []error {
	var errs []error
	if n := len(strings.TrimSpace(m.Name)); n < 2 || n > 100 {
		errs = append(errs, errors.New("name must be between 2 and 100 characters"))
	}
	if n := len(strings.TrimSpace(m.Address)); n < 5 || n > 255 {
		errs = append(errs, errors.New("address must be between 5 and 255 characters"))
	}
	if n := len(strings.TrimSpace(m.Country)); n < 2 || n > 100 {
		errs = append(errs, errors.New("country must be between 2 and 100 characters"))
	}
	return errs
}

// Appliance — позиция каталога. После попадания в заказ её идентичность не меняется.
type Appliance struct {
	ID             int64
	Name           string
	Category       Category
	Model          string
	Manufacturer   Manufacturer
	PowerType      PowerType
	Characteristic string
	Description    string
	// Power — мощность в ваттах, nil если не указана.
	Power *int32
	Price decimal.Decimal
}

// ValidateInvariants проверяет поля позиции каталога.
func (a Appliance) ValidateInvariants() []error {
	var errs []error
	if n := len(strings.TrimSpace(a.Name)); n < 2 || n > 100 {
		errs = append(errs, errors.New("name must be between 2 and 100 characters"))
	}
	if !a.Category.Valid() {
		errs = append(errs, errors.New("category must be one of BIG, SMALL"))
	}
	if n := len(strings.TrimSpace(a.Model)); n < 1 || n > 100 {
		errs = append(errs, errors.New("model must be between 1 and 100 characters"))
	}
	if a.Manufacturer.ID <= 0 {
		errs = append(errs, errors.New("manufacturer is required"))
	}
	if !a.PowerType.Valid() {
		errs = append(errs, errors.New("power type must be one of AC220, AC110, ACCUMULATOR"))
	}
	if len(a.Characteristic) > 500 {
		errs = append(errs, errors.New("characteristic must not exceed 500 characters"))
	}
	if len(a.Description) > 1000 {
		errs = append(errs, errors.New("description must not exceed 1000 characters"))
	}
	if a.Power != nil && (*a.Power < 0 || *a.Power > 100000) {
		errs = append(errs, errors.New("power must be between 0 and 100000 watts"))
	}
	if a.Price.LessThan(minMoneyAmount) || a.Price.GreaterThan(maxAppliancePrice) {
		errs = append(errs, errors.New("price must be between 0.01 and 999999.99"))
	}
	if !a.Price.Equal(a.Price.Round(2)) {
		errs = append(errs, errors.New("price must have at most 2 decimal places"))
	}
	return errs
}
