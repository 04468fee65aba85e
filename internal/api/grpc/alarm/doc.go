// Package alarm implements the gRPC transport of the alarm manager.
//
// The service is declared by hand over well-known protobuf types: requests and
// replies carrying structured data are google.protobuf.Struct values holding
// the JSON form of the api/dto types, identifiers travel as StringValue and
// counters as Int32Value. Clients call the methods with grpc.ClientConn.Invoke
// and the full method names exported here.
package alarm
