// Package character 定义角色卡数据与默认技能表。
package character

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrUnknownSkill 表示对不存在的技能进行操作。
var ErrUnknownSkill = errors.New("unknown skill")

// FatePoints 记录当前与上限命运点。
type FatePoints struct {
	Current int `json:"current" validate:"gte=0,ltefield=Max"`
	Max     int `json:"max" validate:"gte=0"`
}

// Sheet 是一张角色卡，Owner 必须非空。
type Sheet struct {
	Name       string     `json:"name" validate:"max=128"`
	Owner      string     `json:"owner" validate:"required,max=64"`
	FatePoints FatePoints `json:"fatepoints"`
	Skills     Skills     `json:"skills,omitempty"`
}

// Normalize 去除名字首尾空白。
func (s *Sheet) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Owner = strings.TrimSpace(s.Owner)
}

// Validate 校验角色卡字段。
func (s Sheet) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid sheet: %w", err)
	}
	return nil
}

// Skills 是技能名到等级的映射。
type Skills map[string]int

var defaultSkillNames = []string{
	"Talent", "Burglary", "Athletics", "Contacts", "Crafts", "Deceive", "Drive",
	"Empathy", "Fight", "Investigation", "Lore", "Perception", "Physique", "Provoke",
	"Rapport", "Resources", "Shoot", "Stealth", "Will", "Calculus", "Scouting",
	"Quick", "Careful", "Performance", "Survival", "Arcana",
}

// DefaultSkills 返回所有技能等级为 0 的默认技能表。
func DefaultSkills() Skills {
	skills := make(Skills, len(defaultSkillNames))
	for _, name := range defaultSkillNames {
		skills[name] = 0
	}
	return skills
}

// Add 添加技能，已存在时重置为 0。
func (s Skills) Add(name string) Skills {
	s[name] = 0
	return s
}

// Increment 将技能等级加 1。
func (s Skills) Increment(name string) error {
	v, ok := s[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSkill, name)
	}
	s[name] = v + 1
	return nil
}

func (s Skills) Remove(name string) Skills {
	delete(s, name)
	return s
}

func (s Skills) Get(name string) (int, error) {
	v, ok := s[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSkill, name)
	}
	return v, nil
}
