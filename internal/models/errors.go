package models

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound            = status.Errorf(codes.NotFound, "not found")
	ErrRoomNotFound        = status.Errorf(codes.NotFound, "room not found")
	ErrParticipantNotFound = status.Errorf(codes.NotFound, "participant not found")
	ErrNotConnected        = status.Errorf(codes.Unavailable, "not connected to chat server")
	ErrEmptyContent        = status.Errorf(codes.InvalidArgument, "message content is empty")
	ErrSameParticipant     = status.Errorf(codes.InvalidArgument, "a room needs two distinct participants")
	ErrInvalidTransition   = status.Errorf(codes.FailedPrecondition, "report is not pending")
)
