package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Role определяется видом пользователя и отдельно не хранится.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleClient   Role = "CLIENT"
)

// User — общая часть клиента и сотрудника. Email уникален среди всех пользователей.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// Client — покупатель, владелец заказов.
type Client struct {
	User
	Phone   string
	Address string
	// Card — токен карты, может отсутствовать.
	Card string
}

// Employee — сотрудник магазина, одобряет заказы.
type Employee struct {
	User
	Position string
}

// Identity — размеченное объединение Client | Employee.
// Роль выводится из варианта, без проверки типов во время выполнения.
type Identity struct {
	role     Role
	client   Client
	employee Employee
}

// ClientIdentity оборачивает клиента.
func ClientIdentity(c Client) Identity {
	return Identity{role: RoleClient, client: c}
}

// EmployeeIdentity оборачивает сотрудника.
func EmployeeIdentity(e Employee) Identity {
	return Identity{role: RoleEmployee, employee: e}
}

// Role возвращает роль вызывающего; пустая строка для нулевого значения.
func (i Identity) Role() Role {
	return i.role
}

// User возвращает общую часть профиля.
func (i Identity) User() User {
	switch i.role {
	case RoleClient:
		return i.client.User
	case RoleEmployee:
		return i.employee.User
	default:
		return User{}
	}
}

func (i Identity) ID() int64     { return i.User().ID }
func (i Identity) Email() string { return i.User().Email }

// AsClient возвращает клиента, если идентичность — клиент.
func (i Identity) AsClient() (Client, bool) {
	return i.client, i.role == RoleClient
}

// AsEmployee возвращает сотрудника, если идентичность — сотрудник.
func (i Identity) AsEmployee() (Employee, bool) {
	return i.employee, i.role == RoleEmployee
}

// IsZero сообщает, что идентичность не установлена.
func (i Identity) IsZero() bool {
	return i.role == ""
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-+()]+$`)
	cardPattern  = regexp.MustCompile(`^(\d{16}|\d{4}-\d{4}-\d{4}-\d{4})$`)
)

// NormalizeEmail приводит email к виду, в котором он хранится и ищется.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateInvariants проверяет поля профиля, общие для всех пользователей.
func (u User) ValidateInvariants() []error {
	var errs []error
	if n := len(strings.TrimSpace(u.FirstName)); n < 2 || n > 50 {
		errs = append(errs, errors.New("first name must be between 2 and 50 characters"))
	}
	if n := len(strings.TrimSpace(u.LastName)); n < 2 || n > 50 {
		errs = append(errs, errors.New("last name must be between 2 and 50 characters"))
	}
	if len(u.Email) > 255 || !emailPattern.MatchString(u.Email) {
		errs = append(errs, errors.New("email format is invalid"))
	}
	return errs
}

// ValidateInvariants проверяет профиль клиента.
func (c Client) ValidateInvariants() []error {
	errs := c.User.ValidateInvariants()
	if n := len(c.Phone); n < 10 || n > 20 || !phonePattern.MatchString(c.Phone) {
		errs = append(errs, errors.New("phone must be 10-20 characters of digits, spaces, hyphens, plus signs and parentheses"))
	}
	if n := len(strings.TrimSpace(c.Address)); n < 5 || n > 255 {
		errs = append(errs, errors.New("address must be between 5 and 255 characters"))
	}
	if c.Card != "" && !cardPattern.MatchString(c.Card) {
		errs = append(errs, errors.New("card must be 16 digits or formatted as XXXX-XXXX-XXXX-XXXX"))
	}
	return errs
}

// ValidateInvariants проверяет профиль сотрудника.
func (e Employee) ValidateInvariants() []error {
	errs := e.User.ValidateInvariants()
	if n := len(strings.TrimSpace(e.Position)); n < 2 || n > 100 {
		errs = append(errs, errors.New("position must be between 2 and 100 characters"))
	}
	return errs
}

// ValidatePassword проверяет сложность пароля: 8-128 символов, цифра, строчная,
// заглавная буква, спецсимвол и отсутствие пробелов.
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 128 {
		return errors.New("password must be between 8 and 128 characters")
	}
	var digit, lower, upper, special bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return errors.New("password must not contain whitespace")
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune("@#$%^&+=!", r):
			special = true
		}
	}
	if !digit || !lower || !upper || !special {
		return errors.New("password must contain at least one digit, one lowercase, one uppercase letter and one special character")
	}
	return nil
}
