package service

import (
	"errors"
	"fmt"

	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/repository"
	"github.com/gridscope/gridscope-backend/pkg/utils"
)

type AdminService struct {
	userRepo *repository.UserRepository
}

func NewAdminService(userRepo *repository.UserRepository) *AdminService {
	return &AdminService{userRepo: userRepo}
}

func (s *AdminService) GetAllUsers() ([]models.UserResponse, error) {
	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	var response []models.UserResponse
	for _, user := range users {
		response = append(response, userResponse(user))
	}

	return response, nil
}

func (s *AdminService) CreateUser(req *models.AdminCreateRequest) (*models.UserResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, errors.New("user with this email already exists")
	}

	if valid, message := utils.ValidatePassword(req.Password); !valid {
		return nil, errors.New(message)
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userRole, err := parseRole(req.Role)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         userRole,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	resp := userResponse(user)
	return &resp, nil
}

func (s *AdminService) UpdateUser(userID string, req *models.AdminUpdateRequest) (*models.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	if req.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, errors.New("email already taken by another user")
		}
	}

	userRole, err := parseRole(req.Role)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Role = userRole

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	resp := userResponse(user)
	return &resp, nil
}

func (s *AdminService) DeleteUser(userID string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return errors.New("user not found")
	}

	if err := s.userRepo.Delete(userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

func (s *AdminService) ChangeUserPassword(userID string, req *models.AdminChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return errors.New("user not found")
	}

	if valid, message := utils.ValidatePassword(req.NewPassword); !valid {
		return errors.New(message)
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = passwordHash

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}

	return nil
}

func parseRole(role string) (models.UserRole, error) {
	switch role {
	case "admin":
		return models.RoleAdmin, nil
	case "dispatcher":
		return models.RoleDispatcher, nil
	case "engineer":
		return models.RoleEngineer, nil
	default:
		return "", errors.New("invalid role")
	}
}
