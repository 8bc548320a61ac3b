package repository

import (
	"context"
	"exam_portal_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

func (r *StudentRepository) WithTx(tx *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: tx}
}

// Upsert 按学号插入学生，已存在时保留原有姓名（先写入者为准）
func (r *StudentRepository) Upsert(ctx context.Context, regNumber, name string) (*model.Student, error) {
	db := r.DB.WithContext(ctx)

	candidate := &model.Student{Name: name, RegNumber: regNumber}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reg_number"}},
		DoNothing: true,
	}).Create(candidate).Error
	if err != nil {
		return nil, err
	}

	return r.FindByRegNumber(ctx, regNumber)
}

func (r *StudentRepository) FindByRegNumber(ctx context.Context, regNumber string) (*model.Student, error) {
	var s model.Student
	err := r.DB.WithContext(ctx).Where("reg_number = ?", regNumber).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) List(ctx context.Context, page, limit int) ([]model.Student, int64, error) {
	var total int64
	db := r.DB.WithContext(ctx).Model(&model.Student{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []model.Student
	offset := (page - 1) * limit
	err := db.Order("id ASC").Offset(offset).Limit(limit).Find(&students).Error
	return students, total, err
}
