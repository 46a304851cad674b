package media

import "time"

// Update is a shallow partial update. Nil pointers and invalid Optionals leave the field untouched.
type Update struct {
	Name          *string
	Date          *time.Time
	AlbumID       Optional[*int64]
	Tags          *[]string
	Location      Optional[*Location]
	Width         *int
	Height        *int
	Duration      *float64
	Exif          Optional[map[string]any]
	IsFavorite    *bool
	IsHidden      *bool
	EditedVersion Optional[*string]
	OriginalID    Optional[*string]

	// ExpectedRevision, when set, makes the update fail with a conflict if the stored
	// revision differs.
	ExpectedRevision *int64
}

func (u Update) Apply(m *MediaItem) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Date != nil {
		m.Date = *u.Date
	}
	if u.AlbumID.Valid {
		m.AlbumID = u.AlbumID.Value
	}
	if u.Tags != nil {
		m.Tags = append([]string{}, (*u.Tags)...)
	}
	if u.Location.Valid {
		m.Location = u.Location.Value
	}
	if u.Width != nil {
		m.Width = u.Width
	}
	if u.Height != nil {
		m.Height = u.Height
	}
	if u.Duration != nil {
		m.Duration = u.Duration
	}
	if u.Exif.Valid {
		m.Exif = u.Exif.Value
	}
	if u.IsFavorite != nil {
		m.IsFavorite = *u.IsFavorite
	}
	if u.IsHidden != nil {
		m.IsHidden = *u.IsHidden
	}
	if u.EditedVersion.Valid {
		m.EditedVersion = u.EditedVersion.Value
	}
	if u.OriginalID.Valid {
		m.OriginalID = u.OriginalID.Value
	}
}

// BatchResult reports a sequence of independent per-item operations. Completed items stay done
// when later ones fail.
type BatchResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

type BatchFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func (r *BatchResult) Record(id string, err error) {
	if err != nil {
		r.Failed = append(r.Failed, BatchFailure{ID: id, Error: err.Error()})
		return
	}
	r.Succeeded = append(r.Succeeded, id)
}

func (r *BatchResult) HasFailures() bool {
	return len(r.Failed) > 0
}
