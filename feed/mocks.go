package feed

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/spacemeshos/go-feedsim/common/types"
)

// MockBroadcaster is a mock of Broadcaster interface.
type MockBroadcaster struct {
	ctrl     *gomock.Controller
	recorder *MockBroadcasterMockRecorder
}

// MockBroadcasterMockRecorder is the mock recorder for MockBroadcaster.
type MockBroadcasterMockRecorder struct {
	mock *MockBroadcaster
}

// NewMockBroadcaster creates a new mock instance.
func NewMockBroadcaster(ctrl *gomock.Controller) *MockBroadcaster {
	mock := &MockBroadcaster{ctrl: ctrl}
	mock.recorder = &MockBroadcasterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBroadcaster) EXPECT() *MockBroadcasterMockRecorder {
	return m.recorder
}

// Broadcast mocks base method.
func (m *MockBroadcaster) Broadcast(arg0 context.Context, arg1 []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Broadcast", arg0, arg1)
	ret0, _ := ret[0].(error)
	return ret0
}

// Broadcast indicates an expected call of Broadcast.
func (mr *MockBroadcasterMockRecorder) Broadcast(arg0 any, arg1 any) *MockBroadcasterBroadcastCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Broadcast", reflect.TypeOf((*MockBroadcaster)(nil).Broadcast), arg0, arg1)
	return &MockBroadcasterBroadcastCall{Call: call}
}

// MockBroadcasterBroadcastCall wrap *gomock.Call.
type MockBroadcasterBroadcastCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockBroadcasterBroadcastCall) Return(arg0 error) *MockBroadcasterBroadcastCall {
	c.Call = c.Call.Return(arg0)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockBroadcasterBroadcastCall) Do(f func(context.Context, []byte) error) *MockBroadcasterBroadcastCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockBroadcasterBroadcastCall) DoAndReturn(f func(context.Context, []byte) error) *MockBroadcasterBroadcastCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// MockReceiver is a mock of Receiver interface.
type MockReceiver struct {
	ctrl     *gomock.Controller
	recorder *MockReceiverMockRecorder
}

// MockReceiverMockRecorder is the mock recorder for MockReceiver.
type MockReceiverMockRecorder struct {
	mock *MockReceiver
}

// NewMockReceiver creates a new mock instance.
func NewMockReceiver(ctrl *gomock.Controller) *MockReceiver {
	mock := &MockReceiver{ctrl: ctrl}
	mock.recorder = &MockReceiverMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockReceiver) EXPECT() *MockReceiverMockRecorder {
	return m.recorder
}

// Receive mocks base method.
func (m *MockReceiver) Receive(arg0 context.Context) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Receive", arg0)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Receive indicates an expected call of Receive.
func (mr *MockReceiverMockRecorder) Receive(arg0 any) *MockReceiverReceiveCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Receive", reflect.TypeOf((*MockReceiver)(nil).Receive), arg0)
	return &MockReceiverReceiveCall{Call: call}
}

// MockReceiverReceiveCall wrap *gomock.Call.
type MockReceiverReceiveCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockReceiverReceiveCall) Return(arg0 []byte, arg1 error) *MockReceiverReceiveCall {
	c.Call = c.Call.Return(arg0, arg1)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockReceiverReceiveCall) Do(f func(context.Context) ([]byte, error)) *MockReceiverReceiveCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockReceiverReceiveCall) DoAndReturn(f func(context.Context) ([]byte, error)) *MockReceiverReceiveCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// MockRecoverer is a mock of Recoverer interface.
type MockRecoverer struct {
	ctrl     *gomock.Controller
	recorder *MockRecovererMockRecorder
}

// MockRecovererMockRecorder is the mock recorder for MockRecoverer.
type MockRecovererMockRecorder struct {
	mock *MockRecoverer
}

// NewMockRecoverer creates a new mock instance.
func NewMockRecoverer(ctrl *gomock.Controller) *MockRecoverer {
	mock := &MockRecoverer{ctrl: ctrl}
	mock.recorder = &MockRecovererMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRecoverer) EXPECT() *MockRecovererMockRecorder {
	return m.recorder
}

// Recover mocks base method.
func (m *MockRecoverer) Recover(arg0 context.Context, arg1 types.Sequence) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Recover", arg0, arg1)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Recover indicates an expected call of Recover.
func (mr *MockRecovererMockRecorder) Recover(arg0 any, arg1 any) *MockRecovererRecoverCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Recover", reflect.TypeOf((*MockRecoverer)(nil).Recover), arg0, arg1)
	return &MockRecovererRecoverCall{Call: call}
}

// MockRecovererRecoverCall wrap *gomock.Call.
type MockRecovererRecoverCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockRecovererRecoverCall) Return(arg0 string, arg1 error) *MockRecovererRecoverCall {
	c.Call = c.Call.Return(arg0, arg1)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockRecovererRecoverCall) Do(f func(context.Context, types.Sequence) (string, error)) *MockRecovererRecoverCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockRecovererRecoverCall) DoAndReturn(f func(context.Context, types.Sequence) (string, error)) *MockRecovererRecoverCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}
