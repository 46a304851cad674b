package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/apperror"
)

// parseFilter reads the media filter vocabulary from the query string. albumId=null selects
// unfiled items; tags is comma separated or repeated.
func parseFilter(c *gin.Context) (media.Filter, error) {
	var f media.Filter

	if raw, ok := c.GetQuery("albumId"); ok {
		if raw == "" || raw == "null" {
			f.AlbumID = media.Some[*int64](nil)
		} else {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return f, apperror.NewInvalidInput("albumId must be a number or null", err)
			}
			f.AlbumID = media.Some(&id)
		}
	}

	if raw := c.Query("type"); raw != "" {
		typ := media.MediaType(raw)
		if typ != media.TypeImage && typ != media.TypeVideo {
			return f, apperror.NewInvalidInput(fmt.Sprintf("unknown media type %q", raw), nil)
		}
		f.Type = typ
	}

	for _, v := range c.QueryArray("tags") {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	}

	var err error
	if f.IsHidden, err = queryBool(c, "isHidden"); err != nil {
		return f, err
	}
	if f.IsFavorite, err = queryBool(c, "isFavorite"); err != nil {
		return f, err
	}
	if f.MinSize, err = queryInt(c, "minSize"); err != nil {
		return f, err
	}
	if f.MaxSize, err = queryInt(c, "maxSize"); err != nil {
		return f, err
	}
	if f.DateFrom, err = queryDate(c, "dateFrom"); err != nil {
		return f, err
	}
	if f.DateTo, err = queryDate(c, "dateTo"); err != nil {
		return f, err
	}
	return f, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.NewInvalidInput(key+" must be true or false", err)
	}
	return &v, nil
}

func queryInt(c *gin.Context, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.NewInvalidInput(key+" must be a number", err)
	}
	return &v, nil
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	return parseDate(key, c.Query(key))
}

// parseDate accepts a calendar day (UTC) or an RFC 3339 timestamp. Blank is no date.
func parseDate(key, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.NewInvalidInput(key+" must be YYYY-MM-DD or RFC 3339", err)
	}
	return &t, nil
}

func paramInt(c *gin.Context, key string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil {
		return 0, apperror.NewInvalidInput(fmt.Sprintf("invalid %s", key), err)
	}
	return v, nil
}

// parseMediaUpdate builds a partial update from a JSON object. A key given as null clears the
// field; a missing key leaves it alone.
func parseMediaUpdate(body []byte) (media.Update, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return media.Update{}, apperror.NewInvalidInput("body must be a JSON object", err)
	}

	var upd media.Update
	for key, val := range raw {
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(val, &upd.Name)
		case "date":
			err = json.Unmarshal(val, &upd.Date)
		case "albumId":
			upd.AlbumID.Valid = true
			err = json.Unmarshal(val, &upd.AlbumID.Value)
		case "tags":
			var tags []string
			if err = json.Unmarshal(val, &tags); err == nil {
				if tags == nil {
					tags = []string{}
				}
				upd.Tags = &tags
			}
		case "location":
			upd.Location.Valid = true
			err = json.Unmarshal(val, &upd.Location.Value)
		case "width":
			err = json.Unmarshal(val, &upd.Width)
		case "height":
			err = json.Unmarshal(val, &upd.Height)
		case "duration":
			err = json.Unmarshal(val, &upd.Duration)
		case "exif":
			upd.Exif.Valid = true
			err = json.Unmarshal(val, &upd.Exif.Value)
		case "isFavorite":
			err = json.Unmarshal(val, &upd.IsFavorite)
		case "isHidden":
			err = json.Unmarshal(val, &upd.IsHidden)
		case "editedVersion":
			upd.EditedVersion.Valid = true
			err = json.Unmarshal(val, &upd.EditedVersion.Value)
		case "originalId":
			upd.OriginalID.Valid = true
			err = json.Unmarshal(val, &upd.OriginalID.Value)
		case "revision":
			err = json.Unmarshal(val, &upd.ExpectedRevision)
		case "id", "type", "mimeType", "size":
			return media.Update{}, apperror.NewInvalidInput(key+" cannot be changed", nil)
		default:
			return media.Update{}, apperror.NewInvalidInput("unknown field "+key, nil)
		}
		if err != nil {
			return media.Update{}, apperror.NewInvalidInput("invalid value for "+key, err)
		}
	}
	return upd, nil
}
