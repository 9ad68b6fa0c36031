package weather

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// DefaultOpenWeatherURL is the OpenWeatherMap API root
const DefaultOpenWeatherURL = "https://api.openweathermap.org"

const maxForecastHours = 12

type oneCallResponse struct {
	Hourly []struct {
		Dt      int64   `json:"dt"`
		Pop     float64 `json:"pop"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"hourly"`
	Alerts []struct {
		SenderName  string `json:"sender_name"`
		Event       string `json:"event"`
		Start       int64  `json:"start"`
		End         int64  `json:"end"`
		Description string `json:"description"`
	} `json:"alerts"`
}

// OpenWeatherClient is a ForecastProvider backed by the OpenWeatherMap One Call API
type OpenWeatherClient struct {
	httpClient *resty.Client
	apiKey     string
	logger     *zap.Logger
}

// NewOpenWeatherClient creates a One Call API client
func NewOpenWeatherClient(baseURL, apiKey string, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	return &OpenWeatherClient{httpClient: client, apiKey: apiKey, logger: logger}
}

// Forecast fetches the next hours of forecast and any national alerts around at
func (c *OpenWeatherClient) Forecast(ctx context.Context, at spatial.Coordinate) (*Forecast, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("weather API key not configured")
	}

	var body oneCallResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":     strconv.FormatFloat(at.Lat, 'f', 6, 64),
			"lon":     strconv.FormatFloat(at.Lon, 'f', 6, 64),
			"exclude": "minutely,current,daily",
			"units":   "metric",
			"appid":   c.apiKey,
		}).
		SetResult(&body).
		Get("/data/3.0/onecall")
	if err != nil {
		return nil, fmt.Errorf("failed to call weather API: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("[OpenWeather] API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, fmt.Errorf("weather API error: status %d", resp.StatusCode())
	}

	forecast := &Forecast{}
	for i, h := range body.Hourly {
		if i >= maxForecastHours {
			break
		}
		status := ""
		if len(h.Weather) > 0 {
			status = h.Weather[0].Description
		}
		forecast.Hourly = append(forecast.Hourly, HourlyForecast{
			Time:                     time.Unix(h.Dt, 0).UTC(),
			PrecipitationProbability: h.Pop,
			Status:                   status,
		})
	}
	for _, a := range body.Alerts {
		forecast.Alerts = append(forecast.Alerts, NationalAlert{
			SenderName:  a.SenderName,
			Event:       a.Event,
			Description: a.Description,
			Start:       time.Unix(a.Start, 0).UTC(),
			End:         time.Unix(a.End, 0).UTC(),
		})
	}

	c.logger.Debug("[OpenWeather] forecast fetched",
		zap.Int("hours", len(forecast.Hourly)),
		zap.Int("alerts", len(forecast.Alerts)),
	)
	return forecast, nil
}
