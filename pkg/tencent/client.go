package tencent

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/regions"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"
)

// 单次批量翻译的最大行数
const batchSize = 50

// Translator 歌词翻译
type Translator interface {
	TranslateLines(lines []string) ([]string, error)
}

// tmtAPI 便于测试替换的腾讯云机器翻译接口子集
type tmtAPI interface {
	LanguageDetect(request *tmt.LanguageDetectRequest) (*tmt.LanguageDetectResponse, error)
	TextTranslateBatch(request *tmt.TextTranslateBatchRequest) (*tmt.TextTranslateBatchResponse, error)
}

type Client struct {
	tmtClient tmtAPI
	target    string
}

var _ Translator = (*Client)(nil)

func NewClient(secretID, secretKey, target string) (*Client, error) {
	credential := common.NewCredential(secretID, secretKey)

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.ReqMethod = "POST"
	cpf.HttpProfile.ReqTimeout = 10

	tmtClient, err := tmt.NewClient(credential, regions.Guangzhou, cpf)
	if err != nil {
		log.Error().Err(err).Msg("new tencent client error")
		return nil, err
	}
	if target == "" {
		target = "en"
	}
	return &Client{tmtClient: tmtClient, target: target}, nil
}

// TranslateLines 批量翻译歌词，返回结果与输入一一对应
func (c *Client) TranslateLines(lines []string) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	source, err := c.detect(lines)
	if err != nil {
		return nil, err
	}
	if source == c.target {
		return lines, nil
	}

	result := make([]string, 0, len(lines))
	for start := 0; start < len(lines); start += batchSize {
		end := min(start+batchSize, len(lines))

		request := tmt.NewTextTranslateBatchRequest()
		request.Source = common.StringPtr(source)
		request.Target = common.StringPtr(c.target)
		request.ProjectId = common.Int64Ptr(0)
		request.SourceTextList = common.StringPtrs(lines[start:end])

		response, err := c.tmtClient.TextTranslateBatch(request)
		if err != nil {
			return nil, fmt.Errorf("translate lines %d-%d: %w", start, end, err)
		}
		targets := response.Response.TargetTextList
		if len(targets) != end-start {
			return nil, fmt.Errorf("translate lines %d-%d: got %d results", start, end, len(targets))
		}
		for _, t := range targets {
			if t == nil {
				result = append(result, "")
				continue
			}
			result = append(result, *t)
		}
	}
	return result, nil
}

func (c *Client) detect(lines []string) (string, error) {
	sample := strings.Join(lines[:min(len(lines), 5)], " ")

	request := tmt.NewLanguageDetectRequest()
	request.Text = common.StringPtr(sample)
	request.ProjectId = common.Int64Ptr(0)

	response, err := c.tmtClient.LanguageDetect(request)
	if err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}
	if response.Response.Lang == nil {
		return "auto", nil
	}
	return *response.Response.Lang, nil
}
