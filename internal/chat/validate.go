package chat

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// Pre-send content gate: only plain text, punctuation, whitespace and emoji
// may go out, or one of the enumerated sticker references. This is enforced
// before any store write, not by the store.
var (
	urlPattern       = regexp.MustCompile(`(?i)https?://\S+`)
	markupPattern    = regexp.MustCompile(`<[^>]*>`)
	base64Pattern    = regexp.MustCompile(`(?i)^data:image/[a-z]+;base64,`)
	extensionPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|pdf|docx|zip|mp4|mp3)$`)
)

// emojiRunes approximates \p{Emoji}, which RE2 does not support: the emoji
// blocks plus the joiner and variation selector used by compound emoji.
var emojiRunes = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200D, Hi: 0x200D, Stride: 1},
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1},
		{Lo: 0x2B00, Hi: 0x2BFF, Stride: 1},
		{Lo: 0xFE0F, Hi: 0xFE0F, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F1E6, Hi: 0x1F1FF, Stride: 1},
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1},
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1},
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1},
		{Lo: 0x1F900, Hi: 0x1FAFF, Stride: 1},
	},
}

var stickers = map[string]struct{}{
	"wave":     {},
	"gg":       {},
	"thumbsup": {},
	"cry":      {},
	"party":    {},
	"thinking": {},
}

// ValidateText rejects URLs, raw markup, base64 image payloads, known
// binary file extensions and any rune outside letters, numbers,
// punctuation, separators and emoji.
func ValidateText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("%w: empty text", apperror.ErrInvalidMessage)
	}

	switch {
	case urlPattern.MatchString(trimmed):
		return fmt.Errorf("%w: links are not allowed", apperror.ErrInvalidMessage)
	case markupPattern.MatchString(trimmed):
		return fmt.Errorf("%w: markup is not allowed", apperror.ErrInvalidMessage)
	case base64Pattern.MatchString(trimmed):
		return fmt.Errorf("%w: encoded images are not allowed", apperror.ErrInvalidMessage)
	case extensionPattern.MatchString(trimmed):
		return fmt.Errorf("%w: file references are not allowed", apperror.ErrInvalidMessage)
	}

	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsPunct(r) || unicode.Is(unicode.Z, r) || unicode.Is(emojiRunes, r) {
			continue
		}
		return fmt.Errorf("%w: unsupported character %q", apperror.ErrInvalidMessage, r)
	}

	return nil
}

// IsSticker reports whether ref is one of the enumerated sticker references.
func IsSticker(ref string) bool {
	_, ok := stickers[ref]
	return ok
}

// NewTextMessage builds a validated plain-text message. The id and the
// creation timestamp are assigned by the store at write time.
func NewTextMessage(author entity.Identity, text string) (*entity.ChatMessage, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	return &entity.ChatMessage{
		AuthorID: author.ID,
		Kind:     entity.MessageKindText,
		Text:     strings.TrimSpace(text),
	}, nil
}

// NewStickerMessage builds a sticker message; the payload is a sticker
// reference only, never text.
func NewStickerMessage(author entity.Identity, ref string) (*entity.ChatMessage, error) {
	if !IsSticker(ref) {
		return nil, fmt.Errorf("%w: unknown sticker %q", apperror.ErrInvalidMessage, ref)
	}

	return &entity.ChatMessage{
		AuthorID: author.ID,
		Kind:     entity.MessageKindSticker,
		Sticker:  ref,
	}, nil
}
