package modscot

import (
	"context"
	"fmt"

	"github.com/alexandre-normand/modscot/config"
	"github.com/hashicorp/golang-lru"
	"github.com/spf13/viper"
)

const (
	memberInfoCacheSizeDisabledValue = 0
)

// MemberInfo holds community member details
type MemberInfo struct {
	ID          string
	Username    string
	DisplayName string
	Bot         bool
}

// Mention returns the platform mention markup for the member
func (m MemberInfo) Mention() string {
	return Mention(m.ID)
}

// Mention returns the platform mention markup for a member id
func Mention(memberID string) string {
	return fmt.Sprintf("<@%s>", memberID)
}

// RoleMention returns the platform mention markup for a role id
func RoleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

// ChannelMention returns the platform mention markup for a channel id
func ChannelMention(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}

// MemberInfoFinder defines the interface for finding a community member's info
type MemberInfoFinder interface {
	GetMemberInfo(ctx context.Context, communityID string, memberID string) (m *MemberInfo, err error)
}

// cachingMemberInfoFinder holds a cache and a loading MemberInfoFinder to implement the MemberInfoFinder loading entries from cache
type cachingMemberInfoFinder struct {
	loader MemberInfoFinder
	logger SLogger
	cache  *lru.ARCCache
}

type memberKey struct {
	communityID string
	memberID    string
}

// NewCachingMemberInfoFinder creates a new member info finder with caching if enabled via config.MemberInfoCacheSizeKey.
// It requires an implementation of the interface that will do the actual loading when not in cache
func NewCachingMemberInfoFinder(v *viper.Viper, loader MemberInfoFinder, logger SLogger) (mf MemberInfoFinder, err error) {
	cmf := new(cachingMemberInfoFinder)

	cs := v.GetInt(config.MemberInfoCacheSizeKey)

	if cs > memberInfoCacheSizeDisabledValue {
		cmf.cache, err = lru.NewARC(cs)
		if err != nil {
			return nil, err
		}
	}

	cmf.loader = loader
	cmf.logger = logger

	return cmf, nil
}

// GetMemberInfo gets the member info or returns an error and a nil member if not found or
// an error occurred during retrieval
func (c *cachingMemberInfoFinder) GetMemberInfo(ctx context.Context, communityID string, memberID string) (m *MemberInfo, err error) {
	if c.cache == nil {
		c.logger.Debugf("Cache disabled, loading member info for [%s] from platform instead", memberID)
		return c.loader.GetMemberInfo(ctx, communityID, memberID)
	}

	k := memberKey{communityID: communityID, memberID: memberID}
	if cached, exists := c.cache.Get(k); exists {
		c.logger.Debugf("Member info in cache [%s] so using that", memberID)

		info, ok := cached.(MemberInfo)
		if !ok {
			return nil, fmt.Errorf("Error converting cached value for member id [%s]", memberID)
		}

		return &info, nil
	}

	c.logger.Debugf("Member info for [%s] not found in cache, retrieving from platform and saving", memberID)
	m, err = c.loader.GetMemberInfo(ctx, communityID, memberID)
	if err != nil {
		return nil, err
	}

	c.cache.Add(k, *m)

	return m, nil
}
