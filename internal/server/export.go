package server

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jalolov/crm-tizimi/internal/clock"
	"github.com/jalolov/crm-tizimi/internal/model"
	"github.com/jalolov/crm-tizimi/internal/store"
)

// handleExportCSV streams the full task report as a CSV download.
func (s *Server) handleExportCSV(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context(), store.TaskFilter{})
	if err != nil {
		s.log.Error("csv export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=topshiriqlar.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	header := []string{"ID", "Topshiriq", "Tavsif", "Xodim", "Muddat", "Holat", "Izoh", "Bajarilgan sana", "Yaratilgan sana"}
	if err := w.Write(header); err != nil {
		return
	}

	for _, t := range tasks {
		status := "Kutilmoqda"
		if t.Status == model.StatusCompleted {
			status = "Bajarilgan"
		}
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Description,
			t.AssigneeName,
			formatOptional(t.Deadline),
			status,
			t.CompletionNote,
			formatOptional(t.CompletedAt),
			clock.Format(&t.CreatedAt),
		}
		if err := w.Write(record); err != nil {
			return
		}
	}

	w.Flush()
}

// formatOptional renders a nullable timestamp, empty when absent.
func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return clock.Format(t)
}
