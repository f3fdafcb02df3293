package database

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/metnitcs/esay-ai-shop/modules/common/config"
	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

// Store wraps the Supabase postgrest client for the profiles and assets tables.
type Store interface {
	GetProfile(userID string) (*model.UserProfile, error)
	UpdateCredits(userID string, credits float64) error
	UpdateCreditsIf(userID string, expected, credits float64) error
	InsertAsset(asset *model.GeneratedAsset) error
	DeleteAsset(assetID string) error
	ListAssets(userID string, assetType model.AssetType) ([]model.GeneratedAsset, error)
}

type Client struct {
	supabase *supabase.Client
}

func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// GetProfile fetches a user profile row.
func (c *Client) GetProfile(userID string) (*model.UserProfile, error) {
	log.Printf("🔍 Fetching profile: %s", userID)

	var profiles []model.UserProfile

	data, _, err := c.supabase.From("profiles").
		Select("*", "exact", false).
		Eq("id", userID).
		Execute()

	if err != nil {
		return nil, &model.PersistenceError{Op: "get profile", Err: err}
	}

	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, &model.PersistenceError{Op: "parse profile", Err: err}
	}

	if len(profiles) == 0 {
		return nil, fmt.Errorf("profile not found: %s", userID)
	}

	profile := &profiles[0]
	log.Printf("✅ Profile fetched: %s (credits: %.1f)", profile.ID, profile.Credits)

	return profile, nil
}

// UpdateCredits writes a new balance unconditionally.
func (c *Client) UpdateCredits(userID string, credits float64) error {
	log.Printf("💰 Updating credits for %s: %.1f", userID, credits)

	_, _, err := c.supabase.From("profiles").
		Update(map[string]interface{}{
			"credits": credits,
		}, "", "").
		Eq("id", userID).
		Execute()

	if err != nil {
		return &model.PersistenceError{Op: "update credits", Err: err}
	}

	return nil
}

// UpdateCreditsIf writes a new balance only when the stored balance still
// matches expected. A stale expectation means another writer got there first.
func (c *Client) UpdateCreditsIf(userID string, expected, credits float64) error {
	log.Printf("💰 Conditional credit update for %s: %.1f → %.1f", userID, expected, credits)

	data, count, err := c.supabase.From("profiles").
		Update(map[string]interface{}{
			"credits": credits,
		}, "", "exact").
		Eq("id", userID).
		Eq("credits", strconv.FormatFloat(expected, 'f', -1, 64)).
		Execute()

	if err != nil {
		return &model.PersistenceError{Op: "update credits", Err: err}
	}

	if count == 0 {
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil || len(rows) == 0 {
			return &model.PersistenceError{Op: "update credits", Err: fmt.Errorf("balance changed concurrently for user %s", userID)}
		}
	}

	log.Printf("✅ Credits updated: %s now at %.1f", userID, credits)
	return nil
}

// InsertAsset writes a generated asset row.
func (c *Client) InsertAsset(asset *model.GeneratedAsset) error {
	log.Printf("📝 Inserting %s asset for user %s", asset.Type, asset.UserID)

	insertData := map[string]interface{}{
		"id":           asset.ID,
		"user_id":      asset.UserID,
		"type":         string(asset.Type),
		"url":          asset.URL,
		"prompt":       asset.Prompt,
		"aspect_ratio": asset.AspectRatio,
	}

	_, _, err := c.supabase.From("assets").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return &model.PersistenceError{Op: "insert asset", Err: err}
	}

	log.Printf("✅ Asset saved: %s (%s)", asset.ID, asset.Type)
	return nil
}

// DeleteAsset removes an asset row.
func (c *Client) DeleteAsset(assetID string) error {
	log.Printf("🗑️ Deleting asset: %s", assetID)

	_, _, err := c.supabase.From("assets").
		Delete("", "").
		Eq("id", assetID).
		Execute()

	if err != nil {
		return &model.PersistenceError{Op: "delete asset", Err: err}
	}

	log.Printf("✅ Asset deleted: %s", assetID)
	return nil
}

// ListAssets returns a user's assets newest first, optionally filtered by type.
func (c *Client) ListAssets(userID string, assetType model.AssetType) ([]model.GeneratedAsset, error) {
	log.Printf("🔍 Listing assets for %s (type: %s)", userID, assetType)

	query := c.supabase.From("assets").
		Select("*", "exact", false).
		Eq("user_id", userID)

	if assetType != "" {
		query = query.Eq("type", string(assetType))
	}

	data, _, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()

	if err != nil {
		return nil, &model.PersistenceError{Op: "list assets", Err: err}
	}

	var assets []model.GeneratedAsset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, &model.PersistenceError{Op: "parse assets", Err: err}
	}

	log.Printf("✅ Found %d assets", len(assets))
	return assets, nil
}
