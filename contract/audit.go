package contract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Phig0r/sbt-verifiable-credentials/model"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var auditLogger = flogging.MustGetLogger("credregistry.audit")

const auditObjectType = "AuditEvent"

// auditLog accumulates the audit entries of a single transaction and writes
// them out in one commit. Entries share the transaction's ID and timestamp
// and are persisted under (AuditEvent, txID, index) composite keys, so the
// trail of a transaction is replayable in recording order.
type auditLog struct {
	ctx     contractapi.TransactionContextInterface
	entries []model.AuditEvent
}

func newAuditLog(ctx contractapi.TransactionContextInterface) *auditLog {
	return &auditLog{ctx: ctx}
}

// Record appends an entry to the pending trail. TxID and Timestamp are
// stamped at commit time; callers fill the rest.
func (a *auditLog) Record(entry model.AuditEvent) {
	a.entries = append(a.entries, entry)
}

// Commit persists every recorded entry and emits a single chaincode event
// named after the first entry's type, with the full entry list as payload.
// A transaction emits at most one event, so grouped actions such as a
// deactivation and its role revocation travel together. Commit errors must
// fail the calling operation: the trail never lags the state it describes.
func (a *auditLog) Commit() error {
	if len(a.entries) == 0 {
		return nil
	}

	stub := a.ctx.GetStub()
	txID := stub.GetTxID()
	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	when := ts.AsTime()

	for i := range a.entries {
		a.entries[i].TxID = txID
		a.entries[i].Timestamp = when

		key, err := stub.CreateCompositeKey(auditObjectType, []string{txID, strconv.Itoa(i)})
		if err != nil {
			return fmt.Errorf("failed to create composite key for audit entry: %w", err)
		}
		payload, err := json.Marshal(a.entries[i])
		if err != nil {
			return fmt.Errorf("failed to marshal audit entry: %w", err)
		}
		if err := stub.PutState(key, payload); err != nil {
			return fmt.Errorf("failed to persist audit entry: %w", err)
		}
	}

	eventPayload, err := json.Marshal(a.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	eventName := string(a.entries[0].Type)
	if err := stub.SetEvent(eventName, eventPayload); err != nil {
		return fmt.Errorf("failed to set event %s: %w", eventName, err)
	}

	auditLogger.Debugf("Committed %d audit entries for tx %s (event: %s)", len(a.entries), txID, eventName)
	return nil
}
