package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
)

func uuidParam(c *gin.Context, op, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.InvalidInput(op, "invalid "+what+" id")
	}
	return id, nil
}

// splitIDs accepts repeated form values as well as comma separated or JSON-array strings.
func splitIDs(op string, values []string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, v := range values {
		v = strings.Trim(strings.TrimSpace(v), "[]")
		for _, part := range strings.Split(v, ",") {
			part = strings.Trim(strings.TrimSpace(part), `"`)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, apperr.InvalidInput(op, "invalid persona id "+`"`+part+`"`)
			}
			out = append(out, id)
		}
	}
	return out, nil
}
