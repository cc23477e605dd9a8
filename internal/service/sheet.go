package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tablechat/internal/character"
	"tablechat/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// SheetService 负责角色卡的存取与导入导出。
type SheetService struct {
	db     *gorm.DB
	secret []byte
	now    func() time.Time
}

func NewSheetService(db *gorm.DB, signingSecret string) *SheetService {
	return &SheetService{db: db, secret: []byte(signingSecret), now: time.Now}
}

// Save 校验并保存角色卡，返回记录 ID。同一 owner 可以保存多次，查询时取最新一条。
func (s *SheetService) Save(ctx context.Context, sheet character.Sheet) (uint, error) {
	sheet.Normalize()
	if err := sheet.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	data, err := json.Marshal(sheet)
	if err != nil {
		return 0, err
	}
	rec := models.Sheet{Owner: sheet.Owner, SheetData: string(data)}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// Lookup 返回 owner 最近保存的角色卡。
func (s *SheetService) Lookup(ctx context.Context, owner string) (*character.Sheet, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrSheetNotFound
	}
	var rec models.Sheet
	err := s.db.WithContext(ctx).Where("owner = ?", owner).Order("id desc").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSheetNotFound
		}
		return nil, err
	}
	var sheet character.Sheet
	if err := json.Unmarshal([]byte(rec.SheetData), &sheet); err != nil {
		return nil, fmt.Errorf("decode sheet %d: %w", rec.ID, err)
	}
	return &sheet, nil
}

type exportClaims struct {
	Sheet character.Sheet `json:"sheet"`
	jwt.RegisteredClaims
}

// Export 将 owner 最新的角色卡签名为导出令牌，导入时据此确认数据来自本服务。
func (s *SheetService) Export(ctx context.Context, owner string) (string, error) {
	sheet, err := s.Lookup(ctx, owner)
	if err != nil {
		return "", err
	}
	claims := exportClaims{
		Sheet: *sheet,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sheet.Owner,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Import 校验导出令牌的签名并还原角色卡，不会写入存储。
func (s *SheetService) Import(tokenStr string) (*character.Sheet, error) {
	claims := &exportClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExportToken, err)
	}
	if claims.Subject != claims.Sheet.Owner {
		return nil, fmt.Errorf("%w: owner mismatch", ErrInvalidExportToken)
	}
	if err := claims.Sheet.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	return &claims.Sheet, nil
}
