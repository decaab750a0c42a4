package httpapi

import (
	"github.com/dmitrijs2005/memorial/internal/server/services"
	"github.com/dmitrijs2005/memorial/internal/server/staging"
)

type stagedItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Caption     string `json:"caption"`
	Order       int    `json:"order"`
	PreviewURL  string `json:"preview_url"`
}

type rejection struct {
	Name    string `json:"name"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type draftView struct {
	ID       string       `json:"id"`
	MaxFiles int          `json:"max_files"`
	MaxBytes int64        `json:"max_bytes"`
	Items    []stagedItem `json:"items"`
}

type stageResponse struct {
	draftView
	Rejections []rejection `json:"rejections"`
}

type photoOutcome struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	PhotoID string `json:"photo_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type submitResponse struct {
	Status       string         `json:"status"`
	SubmissionID string         `json:"submission_id,omitempty"`
	Stored       int            `json:"stored"`
	Failed       int            `json:"failed"`
	Photos       []photoOutcome `json:"photos"`
}

type carouselOutcome struct {
	Name         string `json:"name"`
	ID           string `json:"id,omitempty"`
	RowNumber    int    `json:"row_number,omitempty"`
	DisplayOrder int    `json:"display_order"`
	URL          string `json:"url,omitempty"`
	Error        string `json:"error,omitempty"`
}

type carouselResponse struct {
	Outcomes   []carouselOutcome `json:"outcomes"`
	Rejections []rejection       `json:"rejections"`
}

func newDraftView(id string, p staging.Policy, items []staging.StagedFile) draftView {
	v := draftView{ID: id, MaxFiles: p.MaxCount, MaxBytes: p.MaxBytes, Items: make([]stagedItem, 0, len(items))}
	for _, it := range items {
		v.Items = append(v.Items, stagedItem{
			ID:          it.ID,
			Name:        it.Name,
			ContentType: it.ContentType,
			Size:        it.Size,
			Caption:     it.Caption,
			Order:       it.Order,
			PreviewURL:  "/api/previews/" + it.PreviewToken,
		})
	}
	return v
}

func newRejections(p staging.Policy, rs []staging.Rejection) []rejection {
	out := make([]rejection, 0, len(rs))
	for _, r := range rs {
		out = append(out, rejection{Name: r.File.Name, Reason: string(r.Reason), Message: r.Reason.Message(p)})
	}
	return out
}

// newSubmitResponse reports a discarded draft exactly like an empty
// successful one.
func newSubmitResponse(r *services.SubmitReport) submitResponse {
	resp := submitResponse{Status: "received", Photos: []photoOutcome{}}
	if r.Discarded {
		return resp
	}
	resp.SubmissionID = r.SubmissionID
	resp.Stored = r.Stored()
	resp.Failed = len(r.Photos) - resp.Stored
	for _, p := range r.Photos {
		o := photoOutcome{Index: p.Index, Name: p.Name, PhotoID: p.PhotoID, URL: p.URL}
		if p.Err != nil {
			o.Error = "not saved"
		}
		resp.Photos = append(resp.Photos, o)
	}
	return resp
}

func newCarouselResponse(p staging.Policy, r *services.CarouselReport) carouselResponse {
	resp := carouselResponse{Outcomes: []carouselOutcome{}, Rejections: newRejections(p, r.Rejections)}
	for _, o := range r.Outcomes {
		out := carouselOutcome{Name: o.Name}
		if o.Err != nil {
			out.Error = o.Err.Error()
		} else {
			out.ID = o.Photo.ID
			out.RowNumber = o.Photo.RowNumber
			out.DisplayOrder = o.Photo.DisplayOrder
			out.URL = o.Photo.URL
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}
	return resp
}
