package dto

// ContentUploadRequest carries the text fields of a material upload.
type ContentUploadRequest struct {
	ClassName string `json:"class_name" form:"class_name"`
	Subject   string `json:"subject" form:"subject"`
	Date      string `json:"date" form:"date"`
	Content   string `json:"content" form:"content"`
}

// ContentFile is one file of a date folder.
type ContentFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ContentEntry groups the files uploaded for one class, subject and date.
type ContentEntry struct {
	Class   string        `json:"class"`
	Subject string        `json:"subject"`
	Date    string        `json:"date"`
	Files   []ContentFile `json:"files"`
}

// ContentUploadResponse lists what an upload stored.
type ContentUploadResponse struct {
	Class   string        `json:"class"`
	Subject string        `json:"subject"`
	Date    string        `json:"date"`
	Files   []ContentFile `json:"files"`
	Message string        `json:"message"`
}

// ContentSearchResponse echoes the query with its matches.
type ContentSearchResponse struct {
	Query   string         `json:"query"`
	Results []ContentEntry `json:"results"`
}

// CatalogUpdateRequest adds subjects to a class in the catalog.
type CatalogUpdateRequest struct {
	ClassName string   `json:"class_name" validate:"required,max=64"`
	Subjects  []string `json:"subjects" validate:"required,min=1,dive,required,max=128"`
}
