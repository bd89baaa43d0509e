package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/site-analytics/internal/ingest"
	"github.com/PratikDhanave/site-analytics/internal/models"
)

// EventSaver is the write path behind POST /api/send.
type EventSaver interface {
	Save(ctx context.Context, req models.SaveEventRequest) (ingest.Result, error)
}

// sessionNamespace scopes generated session and visit UUIDs.
var sessionNamespace = uuid.MustParse("6f1b8c1e-3c6a-4a53-9a55-0d0f3e1b7a10")

// RegisterEventRoutes registers the collect endpoint.
//
// POST /api/send
// - Public: called by the tracker script
// - Returns only after the event (and its data) are written or published
func RegisterEventRoutes(r gin.IRoutes, saver EventSaver) {
	r.POST("/api/send", func(c *gin.Context) {
		var body models.CollectRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		if body.Type != "" && body.Type != "event" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be event"})
			return
		}

		req, msg := buildSaveRequest(c, body.Payload, time.Now())
		if msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		res, err := saver.Save(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "event write failed"})
			return
		}

		c.JSON(http.StatusCreated, models.CollectResponse{
			SessionID: res.SessionID,
			VisitID:   res.VisitID,
			EventIDs:  res.EventIDs,
		})
	})
}

// buildSaveRequest validates the tracker payload and splits its URLs. A
// non-empty message means the request is rejected with 400.
func buildSaveRequest(c *gin.Context, p models.CollectPayload, now time.Time) (models.SaveEventRequest, string) {
	if _, err := uuid.Parse(p.Website); err != nil {
		return models.SaveEventRequest{}, "website must be a UUID"
	}
	if p.URL == "" {
		return models.SaveEventRequest{}, "url required"
	}

	page, err := url.Parse(p.URL)
	if err != nil {
		return models.SaveEventRequest{}, "url is invalid"
	}
	urlPath := page.Path
	if urlPath == "" {
		urlPath = "/"
	}
	hostname := p.Hostname
	if hostname == "" {
		hostname = page.Hostname()
	}

	req := models.SaveEventRequest{
		WebsiteID:      p.Website,
		URLPath:        urlPath,
		URLQuery:       page.RawQuery,
		PageTitle:      p.Title,
		EventName:      p.Name,
		Tag:            p.Tag,
		EventData:      p.Data,
		EventBatchData: p.Batch,
		Hostname:       hostname,
		Browser:        p.Browser,
		OS:             p.OS,
		Device:         p.Device,
		Screen:         p.Screen,
		Language:       p.Language,
		Country:        p.Country,
		Subdivision1:   p.Subdivision1,
		Subdivision2:   p.Subdivision2,
		City:           p.City,
	}
	if req.Country == "" {
		req.Country = strings.TrimSpace(c.GetHeader("CF-IPCountry"))
	}

	if p.Referrer != "" {
		ref, err := url.Parse(p.Referrer)
		if err != nil {
			return models.SaveEventRequest{}, "referrer is invalid"
		}
		// Internal navigation is not a referral.
		if domain := strings.TrimPrefix(ref.Hostname(), "www."); domain != "" && domain != strings.TrimPrefix(hostname, "www.") {
			req.ReferrerDomain = domain
			req.ReferrerPath = ref.Path
			req.ReferrerQuery = ref.RawQuery
		}
	}

	switch {
	case p.Session == "":
		req.SessionID = uuid.NewSHA1(sessionNamespace, []byte(p.Website+"|"+hostname+"|"+c.ClientIP()+"|"+c.Request.UserAgent())).String()
	default:
		if _, err := uuid.Parse(p.Session); err != nil {
			return models.SaveEventRequest{}, "session must be a UUID"
		}
		req.SessionID = p.Session
	}

	switch {
	case p.Visit == "":
		// A visit is the session within one clock hour.
		hour := now.UTC().Truncate(time.Hour).Format(time.RFC3339)
		req.VisitID = uuid.NewSHA1(sessionNamespace, []byte(req.SessionID+"|"+hour)).String()
	default:
		if _, err := uuid.Parse(p.Visit); err != nil {
			return models.SaveEventRequest{}, "visit must be a UUID"
		}
		req.VisitID = p.Visit
	}

	return req, ""
}
