package http

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sorahel/streamlog/internal/model"
)

func (s *Service) handleUserChannels(c *gin.Context) {
	channels, err := s.app.Index.GetChannelsForUser(c.Param("username"))
	if err != nil {
		c.Error(err)
		return
	}
	// The index returns an unordered set; present most recent first.
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].LastMessageTime.After(channels[j].LastMessageTime)
	})
	c.JSON(http.StatusOK, gin.H{"items": channels})
}

func (s *Service) handleUserMessages(c *gin.Context) {
	msgs, err := s.app.Index.GetUserMessagesFromChannel(c.Param("username"), c.Param("channel"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": msgs})
}

func (s *Service) handleUserSearch(c *gin.Context) {
	msgs, err := s.app.Index.SearchUserMessages(c.Param("username"), c.Query("q"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": msgs})
}

type settingRequest struct {
	ShowTimestamps   *bool   `json:"show_timestamps"`
	KickClientID     *string `json:"kick_client_id"`
	KickClientSecret *string `json:"kick_client_secret"`
}

type settingResponse struct {
	ShowTimestamps   bool                             `json:"show_timestamps"`
	KickClientID     string                           `json:"kick_client_id"`
	KickClientSecret string                           `json:"kick_client_secret"`
	ConfigVersion    string                           `json:"config_version"`
	Channels         map[string]model.ChannelSettings `json:"channels"`
}

func (s *Service) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.buildSettingResponse())
}

func (s *Service) handleUpdateSettings(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "detail": err.Error()})
		return
	}

	if req.ShowTimestamps != nil {
		if err := s.app.Config.SetShowTimestamps(*req.ShowTimestamps); err != nil {
			c.Error(err)
			return
		}
	}

	if req.KickClientID != nil || req.KickClientSecret != nil {
		id, secret := s.app.Config.KickCredentials()
		if req.KickClientID != nil {
			id = strings.TrimSpace(*req.KickClientID)
		}
		if req.KickClientSecret != nil {
			secret = strings.TrimSpace(*req.KickClientSecret)
		}
		if err := s.app.Config.SetKickCredentials(id, secret); err != nil {
			c.Error(err)
			return
		}
	}

	c.JSON(http.StatusOK, s.buildSettingResponse())
}

func (s *Service) buildSettingResponse() settingResponse {
	id, secret := s.app.Config.KickCredentials()
	return settingResponse{
		ShowTimestamps:   s.app.Config.ShowTimestamps(),
		KickClientID:     id,
		KickClientSecret: secret,
		ConfigVersion:    s.app.Config.ConfigVersion(),
		Channels:         s.app.Config.GetAllChannelSettings(),
	}
}

type followRequest struct {
	Platform       *string `json:"platform"`
	LoggingEnabled *bool   `json:"logging_enabled"`
}

func (s *Service) handleFollowChannel(c *gin.Context) {
	channel := c.Param("channel")
	if err := s.app.Config.AddFollowedChannel(channel); err != nil {
		c.Error(err)
		return
	}

	var req followRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		if req.Platform != nil {
			if err := s.app.Config.SetChannelPlatform(channel, model.Platform(*req.Platform)); err != nil {
				c.Error(err)
				return
			}
		}
		if req.LoggingEnabled != nil {
			if err := s.app.Config.SetLoggingEnabled(channel, *req.LoggingEnabled); err != nil {
				c.Error(err)
				return
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"channels": s.app.Config.GetAllChannelSettings()})
}

func (s *Service) handleUnfollowChannel(c *gin.Context) {
	removed, err := s.app.Config.RemoveFollowedChannel(c.Param("channel"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

type blacklistRequest struct {
	Username string `json:"username"`
}

func (s *Service) handleGetBlacklist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.app.Blacklist.GetAll()})
}

func (s *Service) handleAddBlacklist(c *gin.Context) {
	var req blacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "detail": err.Error()})
		return
	}
	added, err := s.app.Blacklist.Add(req.Username)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (s *Service) handleRemoveBlacklist(c *gin.Context) {
	removed, err := s.app.Blacklist.Remove(c.Param("username"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Service) handleClearBlacklist(c *gin.Context) {
	if err := s.app.Blacklist.ClearAll(); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
