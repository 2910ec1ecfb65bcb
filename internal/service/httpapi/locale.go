package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/vladislavdragonenkov/appliances/internal/i18n"
)

// localeCookie хранит язык, выбранный через POST /locale/change.
const localeCookie = "lang"

// requestLanguage выбирает язык: параметр lang, затем cookie, затем Accept-Language.
func (h *Handler) requestLanguage(r *http.Request) language.Tag {
	preferences := []string{r.URL.Query().Get("lang")}
	if c, err := r.Cookie(localeCookie); err == nil {
		preferences = append(preferences, c.Value)
	}
	preferences = append(preferences, r.Header.Get("Accept-Language"))
	return h.translator.Resolve(preferences...)
}

// changeLocale запоминает язык в cookie. Неподдерживаемый язык заменяется
// языком по умолчанию.
func (h *Handler) changeLocale(w http.ResponseWriter, r *http.Request) {
	lang := strings.TrimSpace(r.URL.Query().Get("lang"))
	if lang == "" {
		h.writeError(w, r, http.StatusBadRequest, "lang parameter is required", nil)
		return
	}
	tag := h.translator.Resolve(lang)
	base, _ := tag.Base()
	http.SetCookie(w, &http.Cookie{
		Name:     localeCookie,
		Value:    base.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"success":  "true",
		"locale":   tag.String(),
		"language": base.String(),
		"message":  h.translator.Message(tag, "message.success"),
	})
}

func (h *Handler) currentLocale(w http.ResponseWriter, r *http.Request) {
	tag := h.requestLanguage(r)
	base, _ := tag.Base()
	writeJSON(w, http.StatusOK, map[string]string{
		"locale":      tag.String(),
		"language":    base.String(),
		"displayName": i18n.DisplayName(tag),
	})
}

func (h *Handler) languages(w http.ResponseWriter, r *http.Request) {
	tag := h.requestLanguage(r)
	base, _ := tag.Base()
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": h.translator.Languages(tag),
		"current":   base.String(),
	})
}

func (h *Handler) translations(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	translations, ok := h.translator.Category(h.requestLanguage(r), category)
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "unknown translation category: "+category, i18n.Categories())
		return
	}
	writeJSON(w, http.StatusOK, translations)
}
