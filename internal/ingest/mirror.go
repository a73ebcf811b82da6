package ingest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// MirrorHandler serves the records of src in the paginated feed format that
// JSONFeedSource reads. It backs the local feed mirror used in development.
// src is read on every request so edits to the file show up immediately.
func MirrorHandler(src Source, pageSize int, log zerolog.Logger) gin.HandlerFunc {
	if pageSize <= 0 {
		pageSize = 50
	}
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}

		recs, err := src.FetchAll(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Str("source", src.Name()).Msg("mirror read")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read source"})
			return
		}

		start := (page - 1) * pageSize
		end := min(start+pageSize, len(recs))
		resp := feedPage{Items: []feedItem{}}
		if start < len(recs) {
			for _, r := range recs[start:end] {
				resp.Items = append(resp.Items, feedItem{
					StockNumber: r.SourceID,
					Title:       r.Description,
					Options:     r.Features,
					MSRP:        moneyJSON(r.MSRP),
					Price:       moneyJSON(r.SalePrice),
					Quantity:    r.StockQty,
					Image:       r.ImageURL,
				})
			}
		}
		if end < len(recs) {
			resp.NextPage = page + 1
		}
		c.JSON(http.StatusOK, resp)
	}
}

func moneyJSON(v float64) json.RawMessage {
	if v == 0 {
		return nil
	}
	return json.RawMessage(strconv.FormatFloat(v, 'f', 2, 64))
}
