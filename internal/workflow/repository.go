package workflow

import "gorm.io/gorm"

type Repository interface {
	Save(db *gorm.DB, wf *Workflow) error
	FindByID(db *gorm.DB, userID, id uint) (*Workflow, error)
	ListByUser(db *gorm.DB, userID uint) ([]Workflow, error)
	Delete(db *gorm.DB, userID, id uint) error

	SaveExecution(db *gorm.DB, e *Execution) error
	FindExecution(db *gorm.DB, userID uint, executionID string) (*Execution, error)
	ListExecutions(db *gorm.DB, userID, workflowID uint, limit int) ([]Execution, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Save(db *gorm.DB, wf *Workflow) error {
	return db.Save(wf).Error
}

// Workflows are scoped by user_id, not just organization.
func (r *repositoryImpl) FindByID(db *gorm.DB, userID, id uint) (*Workflow, error) {
	var wf Workflow
	err := db.Where("user_id = ?", userID).First(&wf, id).Error
	return &wf, err
}

func (r *repositoryImpl) ListByUser(db *gorm.DB, userID uint) ([]Workflow, error) {
	var list []Workflow
	err := db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Delete(db *gorm.DB, userID, id uint) error {
	res := db.Where("user_id = ?", userID).Delete(&Workflow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) SaveExecution(db *gorm.DB, e *Execution) error {
	return db.Save(e).Error
}

func (r *repositoryImpl) FindExecution(db *gorm.DB, userID uint, executionID string) (*Execution, error) {
	var e Execution
	err := db.Where("user_id = ? AND execution_id = ?", userID, executionID).First(&e).Error
	return &e, err
}

func (r *repositoryImpl) ListExecutions(db *gorm.DB, userID, workflowID uint, limit int) ([]Execution, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []Execution
	err := db.Where("user_id = ? AND workflow_id = ?", userID, workflowID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
