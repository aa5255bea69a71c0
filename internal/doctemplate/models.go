package doctemplate

import "time"

const (
	KindText = "text"
	KindFile = "file"
)

// MaxFileSize bounds an uploaded template file.
const MaxFileSize = 10 << 20

// allowedExtensions maps accepted upload extensions to their content type.
var allowedExtensions = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":  "application/pdf",
}

type Template struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Kind          string     `json:"kind"`
	Body          string     `json:"body,omitempty"`
	FileReference string     `json:"file_reference,omitempty"`
	ContentType   string     `json:"content_type,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type CreateTemplateRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Body string `json:"body" validate:"required,max=100000"`
}

type UpdateTemplateRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Body *string `json:"body,omitempty" validate:"omitempty,min=1,max=100000"`
}

// Upload is a template file received from a multipart form.
type Upload struct {
	Name     string
	Filename string
	Size     int64
}

type TemplateResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Template *Template `json:"template,omitempty"`
}

type TemplateListResponse struct {
	Success   bool       `json:"success"`
	Templates []Template `json:"templates"`
}
