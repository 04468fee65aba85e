package alarm

import (
	"bytes"
	"context"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/alarm-manager/internal/api/dto"
	domain "github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/export/ical"
	"github.com/oshokin/alarm-manager/internal/service/scheduler"
)

// maxUpcoming bounds ListUpcoming.
const maxUpcoming = 100

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	List(ctx context.Context) ([]scheduler.Snapshot, error)
	Get(ctx context.Context, id domain.ID) (scheduler.Snapshot, error)
	Save(ctx context.Context, draft *domain.Alarm) (scheduler.Snapshot, error)
	Delete(ctx context.Context, id domain.ID) error
	Move(ctx context.Context, id domain.ID, newIndex int) error
	Start(ctx context.Context, id domain.ID) (scheduler.Snapshot, error)
	Stop(ctx context.Context, id domain.ID) (scheduler.Snapshot, error)
	Acknowledge(ctx context.Context, id domain.ID) (bool, error)
	AcknowledgeAll(ctx context.Context) (int, error)
	Suspend(ctx context.Context) (int, error)
	Resume(ctx context.Context) (int, error)
	DefaultAlert(ctx context.Context) (*domain.Alert, error)
	SetDefaultAlert(ctx context.Context, a *domain.Alert) error
}

// Server implements AlarmServiceServer over a Service.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
	// now reads the current time for calendar computations.
	now func() time.Time
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
		now:     time.Now,
	}
}

// ListAlarms returns all alarms in display order.
func (s *Server) ListAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snapshots, err := s.service.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return reply(dto.FromSnapshots(snapshots))
}

// GetAlarm returns one alarm.
func (s *Server) GetAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := dto.ParseID(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	snapshot, err := s.service.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}

	return reply(dto.FromSnapshot(snapshot))
}

// SaveAlarm creates or replaces an alarm.
func (s *Server) SaveAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var draft dto.Alarm
	if err := decode(req, &draft); err != nil {
		return nil, err
	}

	a, err := draft.ToDomain()
	if err != nil {
		return nil, toStatus(err)
	}

	snapshot, err := s.service.Save(ctx, a)
	if err != nil {
		return nil, toStatus(err)
	}

	return reply(dto.FromSnapshot(snapshot))
}

// DeleteAlarm removes an alarm.
func (s *Server) DeleteAlarm(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	id, err := dto.ParseID(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.service.Delete(ctx, id); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// MoveAlarm changes the display position of an alarm.
func (s *Server) MoveAlarm(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var move dto.MoveRequest
	if err := decode(req, &move); err != nil {
		return nil, err
	}

	id, err := dto.ParseID(move.ID)
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.service.Move(ctx, id, move.Index); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// StartAlarm arms an alarm from now.
func (s *Server) StartAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return s.toggle(ctx, req, s.service.Start)
}

// StopAlarm disarms an alarm.
func (s *Server) StopAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return s.toggle(ctx, req, s.service.Stop)
}

func (s *Server) toggle(
	ctx context.Context,
	req *wrapperspb.StringValue,
	op func(context.Context, domain.ID) (scheduler.Snapshot, error),
) (*structpb.Struct, error) {
	id, err := dto.ParseID(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	snapshot, err := op(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}

	return reply(dto.FromSnapshot(snapshot))
}

// AcknowledgeAlert stops running alerts.
func (s *Server) AcknowledgeAlert(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		count, err := s.service.AcknowledgeAll(ctx)
		if err != nil {
			return nil, toStatus(err)
		}

		return reply(dto.CountResult{Count: count})
	}

	id, err := dto.ParseID(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	acknowledged, err := s.service.Acknowledge(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}

	var result dto.CountResult
	if acknowledged {
		result.Count = 1
	}

	return reply(result)
}

// Suspend handles a system suspend signal.
func (s *Server) Suspend(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int32Value, error) {
	count, err := s.service.Suspend(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.Int32(int32(count)), nil //nolint:gosec // Bounded by the number of alarms.
}

// Resume handles a system resume signal.
func (s *Server) Resume(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int32Value, error) {
	count, err := s.service.Resume(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.Int32(int32(count)), nil //nolint:gosec // Bounded by the number of alarms.
}

// GetDefaultAlert returns the alert used by alarms without an override.
func (s *Server) GetDefaultAlert(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	alert, err := s.service.DefaultAlert(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return reply(dto.FromAlert(alert))
}

// SetDefaultAlert replaces the default alert.
func (s *Server) SetDefaultAlert(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var wire dto.Alert
	if err := decode(req, &wire); err != nil {
		return nil, err
	}

	alert, err := wire.ToDomain()
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.service.SetDefaultAlert(ctx, alert); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// ListUpcoming returns the next fire times of an alarm.
func (s *Server) ListUpcoming(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var query dto.UpcomingRequest
	if err := decode(req, &query); err != nil {
		return nil, err
	}

	id, err := dto.ParseID(query.ID)
	if err != nil {
		return nil, toStatus(err)
	}

	snapshot, err := s.service.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}

	times, err := ical.Occurrences(snapshot, s.now(), min(max(query.Count, 1), maxUpcoming))
	if err != nil {
		return nil, toStatus(err)
	}

	return reply(dto.Occurrences{ID: id.String(), Times: times})
}

// ExportCalendar renders all alarms as an iCalendar document.
func (s *Server) ExportCalendar(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	snapshots, err := s.service.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	var buf bytes.Buffer
	if err := ical.Encode(&buf, snapshots, s.now()); err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.String(buf.String()), nil
}
