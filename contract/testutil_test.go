package contract

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Phig0r/sbt-verifiable-credentials/model"
)

// Shared identities across the contract suites. Identities are opaque
// strings to the registry, so plain names are as good as X.509 subjects.
const (
	rootAdminID = "root-admin-1"
	adminID     = "admin-1"
	issuerID    = "issuer-1"
	issuer2ID   = "issuer-2"
	recipientID = "student-1"
	testMSPID   = "TestOrgMSP"
)

// =============================================================================
// In-Memory Stub
// =============================================================================
// testStub backs the contract with a map-based world state. It implements
// the subset of the stub the registry touches; the embedded interface
// panics on anything else, which keeps accidental dependencies visible.

type testStub struct {
	shim.ChaincodeStubInterface
	state map[string][]byte

	txCounter int
	txID      string
	now       time.Time

	eventName    string
	eventPayload []byte
}

func newTestStub() *testStub {
	return &testStub{
		state: map[string][]byte{},
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// beginTx starts a fresh transaction: new id, advanced timestamp, cleared
// event capture. One mutating contract call per transaction, as on a peer.
func (st *testStub) beginTx() {
	st.txCounter++
	st.txID = fmt.Sprintf("tx%04d", st.txCounter)
	st.now = st.now.Add(time.Second)
	st.eventName = ""
	st.eventPayload = nil
}

func (st *testStub) GetTxID() string {
	return st.txID
}

func (st *testStub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(st.now), nil
}

func (st *testStub) GetState(key string) ([]byte, error) {
	return st.state[key], nil
}

func (st *testStub) PutState(key string, value []byte) error {
	st.state[key] = value
	return nil
}

func (st *testStub) DelState(key string) error {
	delete(st.state, key)
	return nil
}

func (st *testStub) SetEvent(name string, payload []byte) error {
	st.eventName = name
	st.eventPayload = payload
	return nil
}

// CreateCompositeKey mirrors the shim's encoding: a U+0000 namespace byte,
// then the object type and every attribute, each terminated by U+0000.
func (st *testStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	if objectType == "" {
		return "", errors.New("object type must not be empty")
	}
	key := "\x00" + objectType + "\x00"
	for _, attr := range attributes {
		key += attr + "\x00"
	}
	return key, nil
}

func (st *testStub) sortedKeysWithPrefix(prefix string) []string {
	keys := []string{}
	for k := range st.state {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (st *testStub) iteratorFor(keys []string) *testIterator {
	kvs := make([]*queryresult.KV, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, &queryresult.KV{Key: k, Value: st.state[k]})
	}
	return &testIterator{kvs: kvs}
}

func (st *testStub) GetStateByPartialCompositeKey(objectType string, keys []string) (shim.StateQueryIteratorInterface, error) {
	prefix, err := st.CreateCompositeKey(objectType, keys)
	if err != nil {
		return nil, err
	}
	return st.iteratorFor(st.sortedKeysWithPrefix(prefix)), nil
}

func (st *testStub) GetStateByPartialCompositeKeyWithPagination(objectType string, keys []string, pageSize int32, bookmark string) (shim.StateQueryIteratorInterface, *peer.QueryResponseMetadata, error) {
	prefix, err := st.CreateCompositeKey(objectType, keys)
	if err != nil {
		return nil, nil, err
	}
	all := st.sortedKeysWithPrefix(prefix)

	start := len(all)
	if bookmark == "" {
		start = 0
	} else {
		for i, k := range all {
			if k >= bookmark {
				start = i
				break
			}
		}
	}
	end := start + int(pageSize)
	if pageSize <= 0 || end > len(all) {
		end = len(all)
	}

	next := ""
	if end < len(all) {
		next = all[end]
	}
	it := st.iteratorFor(all[start:end])
	return it, &peer.QueryResponseMetadata{
		Bookmark:            next,
		FetchedRecordsCount: int32(len(it.kvs)),
	}, nil
}

type testIterator struct {
	kvs []*queryresult.KV
	pos int
}

func (it *testIterator) HasNext() bool {
	return it.pos < len(it.kvs)
}

func (it *testIterator) Next() (*queryresult.KV, error) {
	if !it.HasNext() {
		return nil, errors.New("no more items in iterator")
	}
	kv := it.kvs[it.pos]
	it.pos++
	return kv, nil
}

func (it *testIterator) Close() error {
	return nil
}

// =============================================================================
// Client Identity Fake
// =============================================================================

type testClientIdentity struct {
	id    string
	mspID string
}

func (c *testClientIdentity) GetID() (string, error)    { return c.id, nil }
func (c *testClientIdentity) GetMSPID() (string, error) { return c.mspID, nil }

func (c *testClientIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}

func (c *testClientIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}

func (c *testClientIdentity) AssertAttributeValue(string, string) error {
	return nil
}

var (
	_ shim.StateQueryIteratorInterface = (*testIterator)(nil)
	_ cid.ClientIdentity               = (*testClientIdentity)(nil)
)

// =============================================================================
// Suite Base
// =============================================================================

// registrySuiteBase wires a RegistrySmartContract to the in-memory stub.
// ctxFor opens a fresh transaction per call, so every mutating operation in
// a test takes its own context, the way the peer drives invocations.
type registrySuiteBase struct {
	suite.Suite
	contract *RegistrySmartContract
	stub     *testStub
}

func (s *registrySuiteBase) SetupTest() {
	s.contract = &RegistrySmartContract{}
	s.stub = newTestStub()
}

func (s *registrySuiteBase) ctxFor(identity string) *contractapi.TransactionContext {
	s.stub.beginTx()
	ctx := &contractapi.TransactionContext{}
	ctx.SetStub(s.stub)
	ctx.SetClientIdentity(&testClientIdentity{id: identity, mspID: testMSPID})
	return ctx
}

// bootstrapRegistry seeds the root admin and one admin.
func (s *registrySuiteBase) bootstrapRegistry() {
	s.Require().NoError(s.contract.InitRegistry(s.ctxFor(rootAdminID)))
	s.Require().NoError(s.contract.GrantRole(s.ctxFor(rootAdminID), "admin", adminID))
}

// addActiveIssuer registers an issuer through the admin seeded by
// bootstrapRegistry.
func (s *registrySuiteBase) addActiveIssuer(identity, name string) {
	s.Require().NoError(s.contract.AddIssuer(s.ctxFor(adminID), identity, name, ""))
}

// auditEvents reads back the full committed audit trail.
func (s *registrySuiteBase) auditEvents() []model.AuditEvent {
	resp, err := s.contract.GetAuditEvents(s.ctxFor(rootAdminID), "100", "")
	s.Require().NoError(err)
	return resp.Events
}

// hasRole is a shorthand over the public read.
func (s *registrySuiteBase) hasRole(identity string, role model.Role) bool {
	has, err := s.contract.HasRole(s.ctxFor(identity), identity, string(role))
	s.Require().NoError(err)
	return has
}

// lastEvent decodes the chaincode event captured for the most recent
// transaction. Call it right after the operation under test, before the
// next ctxFor resets the capture.
func (s *registrySuiteBase) lastEvent() (string, []model.AuditEvent) {
	if s.stub.eventName == "" {
		return "", nil
	}
	var entries []model.AuditEvent
	s.Require().NoError(json.Unmarshal(s.stub.eventPayload, &entries))
	return s.stub.eventName, entries
}
