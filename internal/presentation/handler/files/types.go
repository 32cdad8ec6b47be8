package files

import "github.com/cliptag/cliptag/internal/domain"

type listFilesResponse struct {
	Files      []domain.FileEntry `json:"files"`
	TotalFiles int                `json:"totalFiles"`
	TotalSize  int64              `json:"totalSize"`
}
