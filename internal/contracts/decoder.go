package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"gaugeScope/internal/model"
)

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// Topic0Map adds extra topic0 hashes for known event names, for forks
	// that emit the same layout under a different signature.
	Topic0Map map[string]string
}

type eventSpec struct {
	name  string
	event abi.Event
}

// EventDecoder decodes voter and bribe logs into model events.
type EventDecoder struct {
	topics map[string]eventSpec
}

// NewEventDecoder builds a decoder for every event the projection handles.
func NewEventDecoder(cfg DecoderConfig) (*EventDecoder, error) {
	voter, err := VoterABI()
	if err != nil {
		return nil, fmt.Errorf("parse voter abi: %w", err)
	}
	bribe, err := BribeABI()
	if err != nil {
		return nil, fmt.Errorf("parse bribe abi: %w", err)
	}

	byName := map[string]abi.Event{
		model.EventGaugeCreated:  voter.Events["GaugeCreated"],
		model.EventWhitelisted:   voter.Events["Whitelisted"],
		model.EventGaugeDeposit:  voter.Events["Deposit"],
		model.EventGaugeWithdraw: voter.Events["Withdraw"],
		model.EventAttach:        voter.Events["Attach"],
		model.EventDetach:        voter.Events["Detach"],
		model.EventVoted:         voter.Events["Voted"],
		model.EventAbstained:     voter.Events["Abstained"],
		model.EventBribeDeposit:  bribe.Events["Deposit"],
		model.EventBribeWithdraw: bribe.Events["Withdraw"],
		model.EventNotifyReward:  bribe.Events["NotifyReward"],
		model.EventClaimRewards:  bribe.Events["ClaimRewards"],
	}

	topics := make(map[string]eventSpec, len(byName)+len(cfg.Topic0Map))
	for name, event := range byName {
		topics[strings.ToLower(event.ID.Hex())] = eventSpec{name: name, event: event}
	}
	for topic0, name := range cfg.Topic0Map {
		if topic0 == "" {
			continue
		}
		event, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", name)
		}
		topics[strings.ToLower(topic0)] = eventSpec{name: name, event: event}
	}

	return &EventDecoder{topics: topics}, nil
}

// ProjectionTopics returns the topic0 hash of every decodable event.
func ProjectionTopics() ([]common.Hash, error) {
	decoder, err := NewEventDecoder(DecoderConfig{})
	if err != nil {
		return nil, err
	}
	out := make([]common.Hash, 0, len(decoder.topics))
	for topic := range decoder.topics {
		out = append(out, common.HexToHash(topic))
	}
	return out, nil
}

// CanDecode checks if the topic0 is supported.
func (d *EventDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topics[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into an Event.
func (d *EventDecoder) Decode(log model.LogRecord) (*model.Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	entry, ok := d.topics[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid contract address: %s", log.Address)
	}

	args, err := eventArgs(entry.event, log)
	if err != nil {
		return nil, err
	}

	payload, err := buildPayload(entry.name, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.name, err)
	}

	return &model.Event{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Address:     common.HexToAddress(log.Address),
		Name:        entry.name,
		Timestamp:   log.Timestamp,
		Payload:     payload,
	}, nil
}

func buildPayload(name string, a eventValues) (interface{}, error) {
	var payload interface{}
	switch name {
	case model.EventGaugeCreated:
		payload = model.GaugeCreated{
			Gauge:         a.address("gauge"),
			Creator:       a.address("creator"),
			InternalBribe: a.address("internal_bribe"),
			ExternalBribe: a.address("external_bribe"),
			Pool:          a.address("pool"),
		}
	case model.EventWhitelisted:
		payload = model.Whitelisted{
			Whitelister: a.address("whitelister"),
			Token:       a.address("token"),
		}
	case model.EventGaugeDeposit:
		payload = model.GaugeDeposit{
			LP:      a.address("lp"),
			Gauge:   a.address("gauge"),
			TokenID: a.bigInt("tokenId"),
			Amount:  a.bigInt("amount"),
		}
	case model.EventGaugeWithdraw:
		payload = model.GaugeWithdraw{
			LP:      a.address("lp"),
			Gauge:   a.address("gauge"),
			TokenID: a.bigInt("tokenId"),
			Amount:  a.bigInt("amount"),
		}
	case model.EventAttach:
		payload = model.Attach{
			Owner:   a.address("owner"),
			Gauge:   a.address("gauge"),
			TokenID: a.bigInt("tokenId"),
		}
	case model.EventDetach:
		payload = model.Detach{
			Owner:   a.address("owner"),
			Gauge:   a.address("gauge"),
			TokenID: a.bigInt("tokenId"),
		}
	case model.EventVoted:
		payload = model.Voted{
			Voter:   a.address("voter"),
			TokenID: a.bigInt("tokenId"),
			Weight:  a.bigInt("weight"),
		}
	case model.EventAbstained:
		payload = model.Abstained{
			TokenID: a.bigInt("tokenId"),
			Weight:  a.bigInt("weight"),
		}
	case model.EventBribeDeposit:
		payload = model.BribeDeposit{
			From:   a.address("from"),
			Amount: a.bigInt("amount"),
		}
	case model.EventBribeWithdraw:
		payload = model.BribeWithdraw{
			From:   a.address("from"),
			Amount: a.bigInt("amount"),
		}
	case model.EventNotifyReward:
		payload = model.NotifyReward{
			From:   a.address("from"),
			Reward: a.address("reward"),
			Amount: a.bigInt("amount"),
		}
	case model.EventClaimRewards:
		payload = model.ClaimRewards{
			From:      a.address("from"),
			Reward:    a.address("reward"),
			Amount:    a.bigInt("amount"),
			Recipient: a.address("recepient"),
		}
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
	if a.err != nil {
		return nil, a.err
	}
	return payload, nil
}

// eventValues holds decoded event arguments by ABI name. The first
// conversion failure sticks in err.
type eventValues struct {
	values map[string]interface{}
	err    error
}

func (a *eventValues) address(name string) common.Address {
	if a.err != nil {
		return common.Address{}
	}
	v, ok := a.values[name]
	if !ok {
		a.err = fmt.Errorf("missing argument %s", name)
		return common.Address{}
	}
	addr, err := asAddress(v)
	if err != nil {
		a.err = fmt.Errorf("%s: %w", name, err)
	}
	return addr
}

func (a *eventValues) bigInt(name string) *big.Int {
	if a.err != nil {
		return nil
	}
	v, ok := a.values[name]
	if !ok {
		a.err = fmt.Errorf("missing argument %s", name)
		return nil
	}
	out, err := asBigInt(v)
	if err != nil {
		a.err = fmt.Errorf("%s: %w", name, err)
	}
	return out
}

func eventArgs(event abi.Event, log model.LogRecord) (eventValues, error) {
	values := make(map[string]interface{}, len(event.Inputs))

	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return eventValues{}, err
	}
	if err := abi.ParseTopicsIntoMap(values, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return eventValues{}, fmt.Errorf("parse topics: %w", err)
	}

	data, err := hexutil.Decode(normalizeData(log.Data))
	if err != nil {
		return eventValues{}, fmt.Errorf("invalid data: %w", err)
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, data); err != nil {
		return eventValues{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return eventValues{values: values}, nil
}

func normalizeData(data string) string {
	if data == "" {
		return "0x"
	}
	return data
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
