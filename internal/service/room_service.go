package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campustools/timetable-api/internal/models"
	"github.com/campustools/timetable-api/internal/timetable"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

// CreateRoomRequest carries the payload for registering a room.
type CreateRoomRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=LECTURE LABORATORY"`
	Capacity int    `json:"capacity" validate:"omitempty,min=1"`
	Active   *bool  `json:"active"`
}

// UpdateRoomRequest carries partial room updates.
type UpdateRoomRequest struct {
	Code     *string `json:"code"`
	Name     *string `json:"name"`
	Type     *string `json:"type" validate:"omitempty,oneof=LECTURE LABORATORY"`
	Capacity *int    `json:"capacity" validate:"omitempty,min=1"`
	Active   *bool   `json:"active"`
}

// RoomService manages the room catalog.
type RoomService struct {
	rooms     roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService creates a room service.
func NewRoomService(rooms roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{rooms: rooms, validator: validate, logger: logger}
}

// List returns rooms with pagination metadata.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.rooms.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list rooms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return rooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one room.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %q not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room")
	}
	return room, nil
}

// Create registers a room.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	if !timetable.RoomType(req.Type).Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown room type %q", req.Type))
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	room := &models.Room{
		Code:     req.Code,
		Name:     req.Name,
		Type:     req.Type,
		Capacity: req.Capacity,
		Active:   active,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create room")
	}
	s.logger.Info("room created", zap.String("room_id", room.ID), zap.String("code", room.Code))
	return room, nil
}

// Update applies partial changes to a room.
func (s *RoomService) Update(ctx context.Context, id string, req UpdateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != nil {
		room.Code = *req.Code
	}
	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Type != nil {
		room.Type = *req.Type
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Active != nil {
		room.Active = *req.Active
	}
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update room")
	}
	return room, nil
}

// Delete removes a room from the catalog.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete room")
	}
	return nil
}
