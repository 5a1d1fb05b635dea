package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eskan/internal/auth"
	"eskan/internal/database"
	"eskan/internal/domain"
	"eskan/internal/events"
	"eskan/internal/models"

	"github.com/rs/zerolog"
)

// Messages returned alongside results when notification delivery degrades.
const (
	msgOK          = "ok"
	msgSMSDegraded = "ok, but the SMS notification could not be delivered"
)

type BookingService struct {
	repo           domain.Repository
	users          domain.UserDirectory
	rooms          domain.RoomDirectory
	locks          domain.LockRepository
	eventBus       domain.EventPublisher
	notifier       domain.Notifier
	worker         domain.SyncWorker
	allocator      RoomAllocator
	discounts      *DiscountCalculator
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewBookingService(
	repo domain.Repository,
	users domain.UserDirectory,
	rooms domain.RoomDirectory,
	locks domain.LockRepository,
	eventBus domain.EventPublisher,
	notifier domain.Notifier,
	worker domain.SyncWorker,
	maxAdvanceDays int,
	logger *zerolog.Logger,
) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 365
	}
	return &BookingService{
		repo:           repo,
		users:          users,
		rooms:          rooms,
		locks:          locks,
		eventBus:       eventBus,
		notifier:       notifier,
		worker:         worker,
		discounts:      NewDiscountCalculator(users),
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

// ValidateStayDates rejects past check-ins and stays requested too far ahead.
func (s *BookingService) ValidateStayDates(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return fmt.Errorf("%w: check-out must be after check-in", database.ErrValidation)
	}
	if checkIn.Before(time.Now().AddDate(0, 0, -1)) {
		return fmt.Errorf("%w: check-in date is in the past", database.ErrValidation)
	}
	if checkIn.After(time.Now().AddDate(0, 0, s.maxAdvanceDays)) {
		return fmt.Errorf("%w: check-in is more than %d days ahead", database.ErrValidation, s.maxAdvanceDays)
	}
	return nil
}

// CreateRequest files a request on behalf of an employee. The aggregate is
// born in draft and submitted in the same call; draft never rests.
func (s *BookingService) CreateRequest(ctx context.Context, identity models.Identity, input domain.CreateRequestInput) (*models.BookingRequest, string, error) {
	if !auth.CanSubmit(identity) {
		return nil, "", fmt.Errorf("role %s cannot file booking requests: %w", identity.Role, database.ErrForbidden)
	}
	if len(input.Guests) == 0 {
		return nil, "", fmt.Errorf("%w: at least one guest is required", database.ErrValidation)
	}
	if err := s.ValidateStayDates(input.CheckIn, input.CheckOut); err != nil {
		return nil, "", err
	}

	hotel, err := s.rooms.GetHotel(ctx, input.HotelID)
	if err != nil {
		return nil, "", fmt.Errorf("hotel %d: %w", input.HotelID, err)
	}

	employee, err := s.users.GetUserByNationalCode(ctx, input.EmployeeNationalCode)
	if err != nil {
		return nil, "", fmt.Errorf("requesting employee %s: %w", input.EmployeeNationalCode, err)
	}

	request, err := models.NewBookingRequest(
		employee.NationalCode, employee.ProvinceCode,
		identity.UserID, hotel.ID,
		input.CheckIn, input.CheckOut, input.Notes,
	)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", database.ErrValidation, err)
	}

	for _, g := range input.Guests {
		relation, percent, err := s.discounts.Classify(ctx, employee.NationalCode, g.NationalCode)
		if err != nil {
			return nil, "", err
		}
		if err := request.AddGuest(g.FullName, g.NationalCode, relation, percent); err != nil {
			return nil, "", fmt.Errorf("%w: %s", database.ErrValidation, err)
		}
	}

	if err := request.Submit(identity.UserID); err != nil {
		return nil, "", fmt.Errorf("%w: %s", database.ErrValidation, err)
	}

	if err := s.repo.CreateBookingRequest(ctx, request); err != nil {
		return nil, "", err
	}

	s.publishEvent(events.EventRequestCreated, request, identity)
	s.enqueueSync(ctx, request, events.TaskUpsert)

	message := s.notifyEmployee(ctx, request,
		fmt.Sprintf("Your stay request %s for %s has been submitted to the hotel.", request.TrackingCode, hotel.Name))
	return request, message, nil
}

// ApproveRequest allocates a room and moves the request to hotel_approved.
// Allocation and the transition commit together: if no room fits, the status
// stays submitted. Approvals for one hotel are serialized by a lock so two
// staff cannot hand out the same room.
func (s *BookingService) ApproveRequest(ctx context.Context, identity models.Identity, requestID int64) (*models.BookingRequest, error) {
	request, err := s.repo.GetBookingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !auth.CanManage(identity, request) {
		return nil, fmt.Errorf("approve request %d: %w", requestID, database.ErrForbidden)
	}

	lockKey := fmt.Sprintf("allocation:hotel:%d", request.HotelID)
	acquired, err := s.locks.Acquire(ctx, lockKey, models.AllocationLockTTL*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire allocation lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("another approval is in progress for hotel %d: %w", request.HotelID, database.ErrConcurrentModification)
	}
	defer func() {
		if err := s.locks.Release(ctx, lockKey); err != nil {
			s.logger.Warn().Err(err).Str("lock", lockKey).Msg("release allocation lock")
		}
	}()

	rooms, err := s.rooms.ListRoomsByHotel(ctx, request.HotelID)
	if err != nil {
		return nil, err
	}
	approved, err := s.repo.ListApprovedByHotel(ctx, request.HotelID, request.ID)
	if err != nil {
		return nil, err
	}

	room, err := s.allocator.SelectRoom(request, rooms, approved)
	if err != nil {
		return nil, err
	}

	if err := request.Approve(room, identity.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRequestStatusWithVersion(ctx, request); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventRequestApproved, request, identity)
	s.enqueueSync(ctx, request, events.TaskUpdateStatus)
	return request, nil
}

// RejectRequest declines a submitted request. The reason is mandatory and
// recorded in the history comment.
func (s *BookingService) RejectRequest(ctx context.Context, identity models.Identity, requestID int64, reason string) (*models.BookingRequest, string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, "", fmt.Errorf("%w: rejection reason is required", database.ErrValidation)
	}

	request, err := s.repo.GetBookingRequest(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if !auth.CanManage(identity, request) {
		return nil, "", fmt.Errorf("reject request %d: %w", requestID, database.ErrForbidden)
	}

	if err := request.Transition(models.StatusHotelRejected, identity.UserID, reason); err != nil {
		return nil, "", err
	}
	if err := s.repo.UpdateRequestStatusWithVersion(ctx, request); err != nil {
		return nil, "", err
	}

	s.publishEvent(events.EventRequestRejected, request, identity)
	s.enqueueSync(ctx, request, events.TaskUpdateStatus)

	message := s.notifyEmployee(ctx, request,
		fmt.Sprintf("Your stay request %s was rejected: %s", request.TrackingCode, reason))
	return request, message, nil
}

// CancelRequest withdraws a submitted or approved request. Cancelling an
// approved request frees its room implicitly.
func (s *BookingService) CancelRequest(ctx context.Context, identity models.Identity, requestID int64) (*models.BookingRequest, string, error) {
	request, err := s.repo.GetBookingRequest(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if !auth.CanCancel(identity, request) {
		return nil, "", fmt.Errorf("cancel request %d: %w", requestID, database.ErrForbidden)
	}

	if err := request.Transition(models.StatusCancelledByUser, identity.UserID, "cancelled by requester"); err != nil {
		return nil, "", err
	}
	if err := s.repo.UpdateRequestStatusWithVersion(ctx, request); err != nil {
		return nil, "", err
	}

	s.publishEvent(events.EventRequestCancelled, request, identity)
	s.enqueueSync(ctx, request, events.TaskUpdateStatus)

	message := s.notifyEmployee(ctx, request,
		fmt.Sprintf("Your stay request %s has been cancelled.", request.TrackingCode))
	return request, message, nil
}

// GetRequestDetails assembles the read view for one request.
func (s *BookingService) GetRequestDetails(ctx context.Context, identity models.Identity, requestID int64) (*domain.RequestDetails, error) {
	request, err := s.repo.GetBookingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(identity, request) {
		return nil, fmt.Errorf("view request %d: %w", requestID, database.ErrForbidden)
	}

	details := &domain.RequestDetails{
		Request:     request,
		StatusLabel: models.StatusLabel(request.Status),
	}
	if hotel, err := s.rooms.GetHotel(ctx, request.HotelID); err == nil {
		details.Hotel = hotel
	}
	if request.AssignedRoomID != 0 {
		if room, err := s.rooms.GetRoom(ctx, request.AssignedRoomID); err == nil {
			details.Room = room
		}
	}
	return details, nil
}

// ListRequests pages through requests visible to the identity's role scope.
func (s *BookingService) ListRequests(ctx context.Context, identity models.Identity, opts domain.ListOptions) ([]*models.BookingRequest, int, error) {
	return s.repo.ListBookingRequests(ctx, models.ListFilter{
		Scope:      auth.ScopeFilter(identity),
		Status:     opts.Status,
		SearchTerm: opts.SearchTerm,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
	})
}

// ListMyRequests is the self-service variant: everything the identity
// submitted or that is for its own national code.
func (s *BookingService) ListMyRequests(ctx context.Context, identity models.Identity, opts domain.ListOptions) ([]*models.BookingRequest, int, error) {
	return s.repo.ListBookingRequests(ctx, models.ListFilter{
		Scope:      auth.SelfScope(identity),
		Status:     opts.Status,
		SearchTerm: opts.SearchTerm,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
	})
}

// AttachFile records a document against a request. Mutating attachments needs
// manage rights or being the original submitter.
func (s *BookingService) AttachFile(ctx context.Context, identity models.Identity, requestID int64, fileName, path string) (*models.RequestFile, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", database.ErrValidation)
	}

	request, err := s.repo.GetBookingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	decision := auth.Evaluate(identity, request)
	if !decision.CanManage && identity.UserID != request.SubmitterID {
		return nil, fmt.Errorf("attach file to request %d: %w", requestID, database.ErrForbidden)
	}

	file := &models.RequestFile{
		RequestID:  request.ID,
		FileName:   fileName,
		Path:       path,
		UploadedBy: identity.UserID,
	}
	if err := s.repo.AttachFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *BookingService) publishEvent(eventType string, request *models.BookingRequest, identity models.Identity) {
	if s.eventBus == nil {
		return
	}

	payload := events.RequestEventPayload{
		RequestID:            request.ID,
		TrackingCode:         request.TrackingCode,
		EmployeeNationalCode: request.EmployeeNationalCode,
		HotelID:              request.HotelID,
		Status:               request.Status,
		AssignedRoomID:       request.AssignedRoomID,
		CheckIn:              request.CheckIn,
		CheckOut:             request.CheckOut,
		ActorID:              identity.UserID,
		ActorRole:            identity.Role,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("request_id", request.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, request *models.BookingRequest, taskType string) {
	if s.worker == nil {
		return
	}

	var status string
	if taskType == events.TaskUpdateStatus {
		status = request.Status
	}

	if err := s.worker.EnqueueTask(ctx, taskType, request.ID, request, status); err != nil {
		s.logger.Error().Err(err).Int64("request_id", request.ID).Str("task", taskType).Msg("sync enqueue error")
	}
}

// notifyEmployee sends a best-effort SMS to the requesting employee. Delivery
// failure only degrades the returned message.
func (s *BookingService) notifyEmployee(ctx context.Context, request *models.BookingRequest, text string) string {
	if s.notifier == nil {
		return msgOK
	}

	employee, err := s.users.GetUserByNationalCode(ctx, request.EmployeeNationalCode)
	if err != nil || employee.Phone == "" {
		s.logger.Warn().Err(err).Str("national_code", request.EmployeeNationalCode).Msg("no phone for notification")
		return msgSMSDegraded
	}

	if err := s.notifier.SendSMS(ctx, employee.Phone, text); err != nil {
		s.logger.Error().Err(err).Int64("request_id", request.ID).Msg("sms notification failed")
		return msgSMSDegraded
	}
	return msgOK
}
