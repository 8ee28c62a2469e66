package organizer

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"tunekeep/internal/catalog"
	"tunekeep/internal/services"
	"tunekeep/internal/textutil"
)

// Pattern is a predefined naming template.
type Pattern struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Template string `json:"template"`
}

var patterns = []Pattern{
	{Key: "artist_album_track", Name: "Artist/Album/Track - Title", Template: "{artist}/{album}/{track:02d} - {title}"},
	{Key: "artist_year_album_track", Name: "Artist/Year - Album/Track - Title", Template: "{artist}/{year} - {album}/{track:02d} - {title}"},
	{Key: "genre_artist_album", Name: "Genre/Artist/Album/Track - Title", Template: "{genre}/{artist}/{album}/{track:02d} - {title}"},
	{Key: "artist_album", Name: "Artist - Album/Track - Title", Template: "{artist} - {album}/{track:02d} - {title}"},
	{Key: "simple", Name: "Artist - Title", Template: "{artist} - {title}"},
	{Key: "track_title", Name: "Track - Title", Template: "{track:02d} - {title}"},
}

// fallbackTemplate is used when a template cannot be rendered.
const fallbackTemplate = "{artist} - {title}"

// Patterns lists the predefined patterns in display order.
func Patterns() []Pattern {
	return append([]Pattern(nil), patterns...)
}

// Lookup returns the predefined pattern with the given key.
func Lookup(key string) (Pattern, bool) {
	for _, p := range patterns {
		if p.Key == key {
			return p, true
		}
	}
	return Pattern{}, false
}

// Resolve maps a pattern key to its template. Anything that is not a key is
// treated as a literal template and validated.
func Resolve(keyOrTemplate string) (string, error) {
	keyOrTemplate = strings.TrimSpace(keyOrTemplate)
	if p, ok := Lookup(keyOrTemplate); ok {
		return p.Template, nil
	}
	if err := ValidatePattern(keyOrTemplate); err != nil {
		return "", services.Wrap(services.ErrValidation, "organizer", "pattern", fmt.Sprintf("invalid pattern %q", keyOrTemplate), err)
	}
	return keyOrTemplate, nil
}

// Values are the placeholder values a template can reference.
type Values struct {
	Artist string
	Title  string
	Album  string
	Genre  string
	Year   int
	Track  int
}

func valuesFor(t catalog.Track) Values {
	return Values{
		Artist: t.Artist,
		Title:  t.Title,
		Album:  t.Album,
		Genre:  t.Genre,
		Year:   t.Year,
		Track:  t.TrackNumber,
	}
}

var sampleValues = Values{
	Artist: "Test Artist",
	Title:  "Test Title",
	Album:  "Test Album",
	Genre:  "Test Genre",
	Year:   2024,
	Track:  1,
}

// ValidatePattern renders template with sample values and reports the first
// problem: unknown placeholders, bad format verbs, unbalanced braces, or a
// result that would escape the base directory.
func ValidatePattern(template string) error {
	if strings.TrimSpace(template) == "" {
		return errors.New("pattern is empty")
	}
	rendered, err := Render(template, sampleValues)
	if err != nil {
		return err
	}
	if strings.HasPrefix(rendered, "/") {
		return errors.New("pattern must be relative")
	}
	for _, segment := range strings.Split(rendered, "/") {
		if segment == ".." {
			return errors.New("pattern must not contain '..' segments")
		}
	}
	return nil
}

// FormatPath renders template for t and appends ext (with its dot). Missing
// tag values render as "Unknown Artist", "Unknown Title", "Unknown Album" and
// "Unknown Genre"; a missing track renders as 0 and a missing year as blank.
// Every value is sanitized for use as a path segment. A template that cannot
// be rendered falls back to "{artist} - {title}".
func FormatPath(template string, t catalog.Track, ext string) string {
	values := valuesFor(t)
	rendered, err := Render(template, values)
	if err != nil {
		rendered, _ = Render(fallbackTemplate, values)
	}
	// Rooting at "/" before cleaning keeps the result inside the base directory.
	return path.Clean("/" + rendered)[1:] + ext
}

// Render substitutes {field} and {field:verb} placeholders. Supported fields
// are artist, title, album, genre, year and track; the only supported verb is
// an integer width such as "02d" or "d", valid for track and a known year.
// "{{" and "}}" produce literal braces.
func Render(template string, v Values) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", errors.New("single '{' encountered in pattern")
			}
			field := template[i+1 : i+1+end]
			text, err := placeholder(field, v)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", errors.New("single '}' encountered in pattern")
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func placeholder(field string, v Values) (string, error) {
	name, verb, hasVerb := strings.Cut(field, ":")
	name = strings.TrimSpace(name)

	var (
		text    string
		number  int
		numeric bool
	)
	switch name {
	case "artist":
		text = segment(v.Artist, "Unknown Artist")
	case "title":
		text = segment(v.Title, "Unknown Title")
	case "album":
		text = segment(v.Album, "Unknown Album")
	case "genre":
		text = segment(v.Genre, "Unknown Genre")
	case "year":
		if v.Year > 0 {
			number, numeric = v.Year, true
		}
	case "track":
		number, numeric = max(v.Track, 0), true
	case "":
		return "", errors.New("empty placeholder {} in pattern")
	default:
		return "", fmt.Errorf("unknown placeholder {%s}", name)
	}

	if !hasVerb {
		if numeric {
			return strconv.Itoa(number), nil
		}
		return text, nil
	}
	if !numeric {
		return "", fmt.Errorf("format verb %q is not valid for {%s}", verb, name)
	}
	return formatInt(number, verb)
}

// formatInt supports the "[0][width]d" subset of format verbs.
func formatInt(n int, verb string) (string, error) {
	if !strings.HasSuffix(verb, "d") {
		return "", fmt.Errorf("unsupported format verb %q", verb)
	}
	digits := strings.TrimSuffix(verb, "d")
	if digits == "" {
		return strconv.Itoa(n), nil
	}
	zero := strings.HasPrefix(digits, "0")
	width, err := strconv.Atoi(digits)
	if err != nil || width < 0 || width > 16 {
		return "", fmt.Errorf("unsupported format verb %q", verb)
	}
	if zero {
		return fmt.Sprintf("%0*d", width, n), nil
	}
	return fmt.Sprintf("%*d", width, n), nil
}

func segment(value, fallback string) string {
	if cleaned := textutil.SanitizeFileName(value); cleaned != "" {
		return cleaned
	}
	return fallback
}
