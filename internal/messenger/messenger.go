package messenger

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/dappmarket/market-ledger/internal/config"
	"go.uber.org/zap"
)

type MessageService interface {
	SendMessage(item Item, body []byte) error
	PollMessages(item Item, messages chan<- *sqs.Message)
	DeleteMessage(item Item, msg *sqs.Message) error
}

type Messenger struct {
	sqs       *sqs.SQS
	queueUrls map[Item]*string
}

type Item string

var (
	ItemBought   Item = "item.bought"
	FundsClaimed Item = "funds.claimed"
)

func (i Item) queue() string {
	return fmt.Sprintf("%s-%s-%s", config.Get().Network, config.Get().Index, string(i))
}

func NewMessenger(sess *session.Session) MessageService {
	return &Messenger{sqs: sqs.New(sess), queueUrls: map[Item]*string{}}
}

func (m *Messenger) SendMessage(item Item, body []byte) error {
	queueUrl, err := m.getQueueUrl(item)
	if err != nil {
		return err
	}

	_, err = m.sqs.SendMessage(&sqs.SendMessageInput{
		MessageBody: aws.String(string(body)),
		QueueUrl:    queueUrl,
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("[Queue] Failed to send message")
		return err
	}

	zap.L().With(zap.String("queue", item.queue())).Debug("[Queue] Published message")

	return nil
}

func (m *Messenger) PollMessages(item Item, messages chan<- *sqs.Message) {
	queueUrl, err := m.getQueueUrl(item)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("[Queue] Failed to resolve queue")
		return
	}

	for {
		output, err := m.sqs.ReceiveMessage(&sqs.ReceiveMessageInput{
			QueueUrl:            queueUrl,
			MaxNumberOfMessages: aws.Int64(10),
			WaitTimeSeconds:     aws.Int64(15),
		})
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("[Queue] Failed to fetch messages")
			continue
		}

		for _, message := range output.Messages {
			messages <- message
		}
	}
}

func (m *Messenger) DeleteMessage(item Item, msg *sqs.Message) error {
	queueUrl, err := m.getQueueUrl(item)
	if err != nil {
		return err
	}

	_, err = m.sqs.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      queueUrl,
		ReceiptHandle: msg.ReceiptHandle,
	})

	return err
}

func (m *Messenger) getQueueUrl(item Item) (*string, error) {
	if url, ok := m.queueUrls[item]; ok {
		return url, nil
	}

	result, err := m.sqs.GetQueueUrl(&sqs.GetQueueUrlInput{QueueName: aws.String(item.queue())})
	if err != nil {
		return nil, err
	}

	m.queueUrls[item] = result.QueueUrl

	return result.QueueUrl, nil
}
