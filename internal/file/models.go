package file

type RequestFile struct {
	Name     string
	Size     int64
	MimeType string
	TGFileID string
}

// StagedFile is a download that landed on disk and can be opened for
// measuring.
type StagedFile struct {
	Name     string
	MimeType string
	Path     string
	Size     int64
}

type DownloadResult struct {
	Result *StagedFile
	Index  int
	Total  int
	Err    error
}
