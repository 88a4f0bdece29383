package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// DeviceSensorProvider is responsible for retrieving location data from a GPS device connected via serial port.
type DeviceSensorProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	open     func() (io.ReadCloser, error)
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	d := &DeviceSensorProvider{
		port:     port,
		baudRate: baudRate,
	}
	d.open = func() (io.ReadCloser, error) {
		return serial.OpenPort(&serial.Config{Name: d.port, Baud: d.baudRate})
	}
	return d
}

// GetLocation reads NMEA sentences until the first GGA with a valid fix.
// The serial read does not honour deadlines, so cancellation closes the port
// to unblock the scanner.
func (d *DeviceSensorProvider) GetLocation(ctx context.Context, _ Accuracy) (Position, error) {
	port, err := d.open()
	if err != nil {
		return Position{}, err
	}

	type result struct {
		pos Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := readFix(port)
		done <- result{pos: pos, err: err}
	}()

	select {
	case <-ctx.Done():
		port.Close()
		<-done
		return Position{}, ctx.Err()
	case r := <-done:
		port.Close()
		return r.pos, r.err
	}
}

// readFix scans r for GGA sentences from any talker ($GPGGA, $GNGGA, ...).
func readFix(r io.Reader) (Position, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") || !strings.Contains(line, "GGA,") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// a corrupt line mid-stream is normal on serial links
			continue
		}

		gga, ok := sentence.(nmea.GGA)
		if !ok || gga.FixQuality == nmea.Invalid {
			continue
		}

		return Position{
			GeoPoint: GeoPoint{Latitude: gga.Latitude, Longitude: gga.Longitude},
			Accuracy: gga.HDOP, // Use HDOP as a proxy for accuracy
		}, nil
	}

	if err := scanner.Err(); err != nil {
		return Position{}, err
	}

	return Position{}, errors.New("no valid GPS data found")
}
