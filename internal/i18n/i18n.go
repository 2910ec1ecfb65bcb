// Package i18n выбирает язык ответа и отдаёт переводы подписей интерфейса.
package i18n

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported — поддерживаемые языки; первый используется по умолчанию.
var Supported = []language.Tag{language.English, language.Ukrainian}

// categories — ключи подписей по категориям. Значение — суффикс ключа сообщения.
var categories = map[string][]string{
	"menu":      {"appliances", "employees", "clients", "orders", "manufacturers", "logout"},
	"button":    {"add", "edit", "delete", "save", "cancel", "approve", "search", "back"},
	"appliance": {"name", "category", "model", "manufacturer", "powerType", "characteristic", "description", "power", "price"},
	"order":     {"id", "client", "employee", "approved", "items", "total"},
}

// Translator разрешает язык запроса и печатает сообщения из каталога.
type Translator struct {
	matcher language.Matcher
	catalog *catalog.Builder
}

// New создаёт переводчик со встроенным каталогом сообщений.
func New() *Translator {
	b := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	for tag, entries := range messages {
		for key, text := range entries {
			// Ключи и тексты статические, ошибка возможна только при пустом теге.
			_ = b.SetString(tag, key, text)
		}
	}
	return &Translator{
		matcher: language.NewMatcher(Supported),
		catalog: b,
	}
}

// Resolve выбирает поддерживаемый язык по значениям вида "uk" или заголовку
// Accept-Language. Пустой ввод даёт язык по умолчанию.
func (t *Translator) Resolve(preferences ...string) language.Tag {
	_, index := language.MatchStrings(t.matcher, preferences...)
	return Supported[index]
}

// Message возвращает перевод ключа; неизвестный ключ возвращается как есть.
func (t *Translator) Message(tag language.Tag, key string) string {
	p := message.NewPrinter(tag, message.Catalog(t.catalog))
	return p.Sprintf(key)
}

// Category возвращает переводы подписей категории. false для неизвестной категории.
func (t *Translator) Category(tag language.Tag, category string) (map[string]string, bool) {
	keys, ok := categories[strings.ToLower(category)]
	if !ok {
		return nil, false
	}
	prefix := strings.ToLower(category) + "."
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		out[key] = t.Message(tag, prefix+key)
	}
	return out, true
}

// Categories возвращает имена известных категорий в алфавитном порядке.
func Categories() []string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DisplayName — название языка на нём самом.
func DisplayName(tag language.Tag) string {
	return display.Self.Name(tag)
}

// Languages возвращает названия поддерживаемых языков на языке tag.
func (t *Translator) Languages(tag language.Tag) map[string]string {
	out := make(map[string]string, len(Supported))
	for _, supported := range Supported {
		base, _ := supported.Base()
		out[base.String()] = t.Message(tag, "language."+base.String())
	}
	return out
}
