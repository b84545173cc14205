package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	backupapp "villaledger/internal/app/handlers/backup"
	syncapp "villaledger/internal/app/handlers/remotesync"
	settingsapp "villaledger/internal/app/handlers/settings"
	"villaledger/internal/app/queries"
)

// AdminHandler serves the settings screen: backup, sync and commission.
type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) RunBackup(c *gin.Context) {
	result, err := commands.Dispatch[backupapp.RunBackupCommand, dto.BackupResult](c.Request.Context(), h.Commands, backupapp.RunBackupCommand{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ReadBackup(c *gin.Context) {
	result, err := queries.Ask[backupapp.ReadBackupQuery, dto.Backup](c.Request.Context(), h.Queries, backupapp.ReadBackupQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Sync(c *gin.Context) {
	result, err := commands.Dispatch[syncapp.SyncRemoteCommand, dto.SyncResult](c.Request.Context(), h.Commands, syncapp.SyncRemoteCommand{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) GetSettings(c *gin.Context) {
	result, err := queries.Ask[settingsapp.GetSettingsQuery, dto.Settings](c.Request.Context(), h.Queries, settingsapp.GetSettingsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type settingsRequest struct {
	CommissionRate *float64 `json:"commission" binding:"required"`
}

func (h AdminHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := settingsapp.UpdateSettingsCommand{CommissionRate: decimal.NewFromFloat(*req.CommissionRate)}
	result, err := commands.Dispatch[settingsapp.UpdateSettingsCommand, dto.Settings](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
