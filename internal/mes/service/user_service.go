package service

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

type CreateUserRequest struct {
	Username    string   `json:"username" binding:"required"`
	Password    string   `json:"password" binding:"required,min=8"`
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (s *UserService) Create(req CreateUserRequest) (*entity.User, error) {
	if len(req.Password) < 8 {
		return nil, errs.Validation("user.create", "密码长度不足8位")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.Collaborator("user.create", err)
	}
	role := req.Role
	if role == "" {
		role = "operator"
	}

	u := &entity.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Permissions:  entity.StringList(req.Permissions),
		Status:       "active",
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, errs.Collaborator("user.create", err)
	}
	return u, nil
}

func (s *UserService) GetByID(id string) (*entity.User, error) {
	u, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "user.get", "User", id)
	}
	return u, nil
}

func (s *UserService) List() ([]entity.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, errs.Collaborator("user.list", err)
	}
	return users, nil
}

// Can 权限闸门：每个写操作入口由此裁决
func (s *UserService) Can(userID, action, module string) (bool, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return false, wrapRead(err, "user.can", "User", userID)
	}
	return u.Can(action, module), nil
}

type UpdatePermissionsRequest struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (s *UserService) UpdatePermissions(id string, req UpdatePermissionsRequest) (*entity.User, error) {
	u, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "user.updatePermissions", "User", id)
	}
	if req.Role != "" {
		u.Role = req.Role
	}
	if req.Permissions != nil {
		u.Permissions = entity.StringList(req.Permissions)
	}
	if err := s.userRepo.Update(u); err != nil {
		return nil, errs.Collaborator("user.updatePermissions", err)
	}
	return u, nil
}
