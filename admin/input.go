package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TagList accepts either a JSON array or a comma separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = ParseTags(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a list or a comma separated string: %w", err)
	}
	out := TagList{}
	for _, tag := range list {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	*t = out
	return nil
}

// ParseTags splits a comma separated string into trimmed, non-empty tags.
func ParseTags(s string) TagList {
	out := TagList{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Upload is a raw file attached to a media field.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MediaField is either an existing URL or a new upload.
type MediaField struct {
	URL    string
	Upload *Upload
}

// UnmarshalJSON accepts "https://..." or {"src": "..."}, the shape admin
// file inputs send for media that is already stored.
func (m *MediaField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &m.URL)
	}

	var obj struct {
		Src string `json:"src"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("media must be a URL or an object with src: %w", err)
	}
	m.URL = obj.Src
	if m.URL == "" {
		m.URL = obj.URL
	}
	return nil
}

// ProjectInput carries create and update fields. Nil fields are left untouched on update.
type ProjectInput struct {
	Title        *string     `json:"title"`
	Description  *string     `json:"description"`
	Category     *string     `json:"category"`
	Date         *string     `json:"date"`
	Featured     *bool       `json:"featured"`
	ExternalOnly *bool       `json:"externalOnly"`
	ProjectURL   *string     `json:"projectUrl"`
	GithubURL    *string     `json:"githubUrl"`
	Image        *MediaField `json:"image"`
	Thumb        *MediaField `json:"thumb"`
	Video        *MediaField `json:"video"`
	Tags         *TagList    `json:"tags"`
}

func (in *ProjectInput) media() map[string]*MediaField {
	return map[string]*MediaField{
		"image": in.Image,
		"thumb": in.Thumb,
		"video": in.Video,
	}
}
