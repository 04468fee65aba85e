package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alarmmanager.v1.AlarmService"

// Full method names, as passed to grpc.ClientConn.Invoke.
const (
	MethodListAlarms       = "/" + ServiceName + "/ListAlarms"
	MethodGetAlarm         = "/" + ServiceName + "/GetAlarm"
	MethodSaveAlarm        = "/" + ServiceName + "/SaveAlarm"
	MethodDeleteAlarm      = "/" + ServiceName + "/DeleteAlarm"
	MethodMoveAlarm        = "/" + ServiceName + "/MoveAlarm"
	MethodStartAlarm       = "/" + ServiceName + "/StartAlarm"
	MethodStopAlarm        = "/" + ServiceName + "/StopAlarm"
	MethodAcknowledgeAlert = "/" + ServiceName + "/AcknowledgeAlert"
	MethodSuspend          = "/" + ServiceName + "/Suspend"
	MethodResume           = "/" + ServiceName + "/Resume"
	MethodGetDefaultAlert  = "/" + ServiceName + "/GetDefaultAlert"
	MethodSetDefaultAlert  = "/" + ServiceName + "/SetDefaultAlert"
	MethodListUpcoming     = "/" + ServiceName + "/ListUpcoming"
	MethodExportCalendar   = "/" + ServiceName + "/ExportCalendar"
)

// AlarmServiceServer is the server API of the alarm service.
type AlarmServiceServer interface {
	// ListAlarms returns a dto.StatusList.
	ListAlarms(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// GetAlarm returns the dto.Status of one alarm.
	GetAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	// SaveAlarm creates or replaces a dto.Alarm and returns its dto.Status.
	SaveAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteAlarm(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	// MoveAlarm takes a dto.MoveRequest.
	MoveAlarm(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	StartAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	StopAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	// AcknowledgeAlert stops the alert of one alarm, or of all alarms for an
	// empty id, and returns a dto.CountResult.
	AcknowledgeAlert(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	Suspend(ctx context.Context, req *emptypb.Empty) (*wrapperspb.Int32Value, error)
	Resume(ctx context.Context, req *emptypb.Empty) (*wrapperspb.Int32Value, error)
	// GetDefaultAlert returns a dto.Alert.
	GetDefaultAlert(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetDefaultAlert(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	// ListUpcoming takes a dto.UpcomingRequest and returns dto.Occurrences.
	ListUpcoming(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// ExportCalendar returns the alarms as an iCalendar document.
	ExportCalendar(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// ServiceDesc is the descriptor of the alarm service.
//
//nolint:gochecknoglobals // Passed by address to grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListAlarms", MethodListAlarms, AlarmServiceServer.ListAlarms),
		unary("GetAlarm", MethodGetAlarm, AlarmServiceServer.GetAlarm),
		unary("SaveAlarm", MethodSaveAlarm, AlarmServiceServer.SaveAlarm),
		unary("DeleteAlarm", MethodDeleteAlarm, AlarmServiceServer.DeleteAlarm),
		unary("MoveAlarm", MethodMoveAlarm, AlarmServiceServer.MoveAlarm),
		unary("StartAlarm", MethodStartAlarm, AlarmServiceServer.StartAlarm),
		unary("StopAlarm", MethodStopAlarm, AlarmServiceServer.StopAlarm),
		unary("AcknowledgeAlert", MethodAcknowledgeAlert, AlarmServiceServer.AcknowledgeAlert),
		unary("Suspend", MethodSuspend, AlarmServiceServer.Suspend),
		unary("Resume", MethodResume, AlarmServiceServer.Resume),
		unary("GetDefaultAlert", MethodGetDefaultAlert, AlarmServiceServer.GetDefaultAlert),
		unary("SetDefaultAlert", MethodSetDefaultAlert, AlarmServiceServer.SetDefaultAlert),
		unary("ListUpcoming", MethodListUpcoming, AlarmServiceServer.ListUpcoming),
		unary("ExportCalendar", MethodExportCalendar, AlarmServiceServer.ExportCalendar),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarmmanager/v1/alarm.proto",
}

// RegisterAlarmServiceServer registers srv on a gRPC server.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds the descriptor of a unary method from its server method.
func unary[Req, Resp any](
	name, fullMethod string,
	call func(AlarmServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			server, _ := srv.(AlarmServiceServer) //nolint:errcheck // HandlerType guarantees the type.

			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}

			handler := func(ctx context.Context, req any) (any, error) {
				typed, _ := req.(*Req) //nolint:errcheck // The request was decoded above.

				return call(server, ctx, typed)
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}
