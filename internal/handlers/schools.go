package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ukedu/termtrack/internal/calendar"
	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

// SchoolPromptHandler returns the extraction prompt for one school.
func SchoolPromptHandler(schoolStore *store.SchoolStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		idStr := c.Params("id")
		urn, err := strconv.Atoi(idStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid school ID format. Must be an integer.",
			})
		}

		school, err := schoolStore.GetByURN(ctx, urn)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error loading school",
			})
		}
		if school == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fmt.Sprintf("School with ID %d not found", urn),
			})
		}

		return c.JSON(fiber.Map{
			"school_id": strconv.Itoa(school.URN),
			"prompt":    service.PromptForWebsite(school.Website.String),
		})
	}
}

// RandomPromptHandler claims a random unprocessed school, marks it processed,
// and returns its prompt. When every school is already processed it falls
// back to any school without flipping anything.
func RandomPromptHandler(schoolStore *store.SchoolStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		school, err := schoolStore.ClaimRandomUnprocessed(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error selecting school",
			})
		}
		if school == nil {
			school, err = schoolStore.RandomAny(ctx)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Error selecting school",
				})
			}
		}
		if school == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No schools found in database",
			})
		}

		return c.JSON(fiber.Map{
			"school_id": strconv.Itoa(school.URN),
			"prompt":    service.PromptForWebsite(school.Website.String),
		})
	}
}

type schoolDataRequest struct {
	SchoolID *int            `json:"school_id"`
	Data     json.RawMessage `json:"data"`
}

// SchoolDataHandler creates or updates a school's current record. When the
// school already has a record, the incoming object is shallow-merged onto it
// with incoming keys winning; otherwise a new record is created.
func SchoolDataHandler(schoolStore *store.SchoolStore, recordStore *store.RecordStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		var req schoolDataRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON in request body",
			})
		}

		if req.SchoolID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "school_id is required",
			})
		}
		if len(req.Data) == 0 || string(req.Data) == "null" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "data is required",
			})
		}

		var incoming map[string]any
		if err := json.Unmarshal(req.Data, &incoming); err != nil || incoming == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "data must be a JSON object",
			})
		}

		urn := *req.SchoolID
		exists, err := schoolStore.Exists(ctx, urn)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error loading school",
			})
		}
		if !exists {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fmt.Sprintf("School with ID %d not found", urn),
			})
		}

		current, err := recordStore.LatestBySchool(ctx, urn)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error loading record",
			})
		}

		if current != nil {
			existing := map[string]any{}
			if payload, err := current.PayloadValue(); err == nil {
				if m, ok := payload.(map[string]any); ok {
					existing = m
				}
			}

			merged := calendar.Merge(existing, incoming)
			data, err := json.Marshal(merged)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Error encoding record",
				})
			}
			if err := recordStore.UpdatePayload(ctx, current.ID, data); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Error saving record",
				})
			}

			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message":   "School data updated successfully",
				"school_id": strconv.Itoa(urn),
				"action":    "updated",
				"data":      merged,
			})
		}

		data, err := json.Marshal(incoming)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error encoding record",
			})
		}
		if _, err := recordStore.Insert(ctx, urn, data); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error saving record",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":   "School data created successfully",
			"school_id": strconv.Itoa(urn),
			"action":    "created",
			"data":      incoming,
		})
	}
}

// InvalidDataHandler hands out a school for the second scraping stage: one
// that was processed but whose current record is missing or not in calendar
// form. The winning school's second_scraper flag is claimed atomically, so
// concurrent callers never receive the same school.
func InvalidDataHandler(schoolStore *store.SchoolStore, recordStore *store.RecordStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		candidates, err := schoolStore.InvalidDataCandidates(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error loading schools",
			})
		}

		for _, school := range candidates {
			rec, err := recordStore.LatestBySchool(ctx, school.URN)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Error loading record",
				})
			}

			reason := ""
			if rec == nil {
				reason = "no_data"
			} else {
				payload, err := rec.PayloadValue()
				if err != nil {
					reason = "invalid_data"
				} else {
					switch calendar.Classify(payload) {
					case calendar.StatusNull, calendar.StatusEmpty, calendar.StatusInvalid:
						reason = "invalid_data"
					}
				}
			}
			if reason == "" {
				continue
			}

			claimed, err := schoolStore.ClaimSecondScraper(ctx, school.URN)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Error claiming school",
				})
			}
			if !claimed {
				// Another caller won this school; try the next candidate.
				continue
			}

			return c.JSON(fiber.Map{
				"school_id":   strconv.Itoa(school.URN),
				"school_name": school.EstablishmentName,
				"website":     strings.TrimSpace(school.Website.String),
				"reason":      reason,
			})
		}

		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No schools with missing or invalid data found",
		})
	}
}

// SchoolsHandler dumps every school joined with its current record payload.
func SchoolsHandler(schoolStore *store.SchoolStore, recordStore *store.RecordStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		schools, err := schoolStore.GetAll(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error loading schools",
			})
		}

		out := make([]fiber.Map, 0, len(schools))
		for _, school := range schools {
			info := fiber.Map{
				"urn":                  school.URN,
				"establishment_name":   school.EstablishmentName,
				"local_authority":      school.LocalAuthority,
				"establishment_status": school.EstablishmentStatus,
				"process":              school.Process,
				"website":              school.Website.String,
				"data":                 nil,
				"data_created_at":      nil,
				"data_updated_at":      nil,
			}

			rec, err := recordStore.LatestBySchool(ctx, school.URN)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Error loading record",
				})
			}
			if rec != nil {
				if payload, err := rec.PayloadValue(); err == nil {
					info["data"] = payload
				}
				info["data_created_at"] = rec.CreatedAt
				info["data_updated_at"] = rec.UpdatedAt
			}

			out = append(out, info)
		}

		stats, err := schoolStore.Stats(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error loading stats",
			})
		}

		return c.JSON(fiber.Map{
			"total_schools": len(out),
			"stats":         stats,
			"schools":       out,
		})
	}
}
